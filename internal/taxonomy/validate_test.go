package taxonomy

import (
	"strings"
	"testing"
)

func TestValidate_CleanCatalog(t *testing.T) {
	s := loadTestStore(t)

	report := Validate(s)
	if !report.OK() {
		t.Errorf("expected no errors, got %v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", report.Warnings)
	}
}

func TestValidate_WeightSum(t *testing.T) {
	catalog := testCatalogHeader +
		"TE-01,A,A,Émotion,I_p,,0.5,0.2,0.1,f,k\n" // sums to 0.8
	s, err := Load(writeCatalog(t, catalog), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	report := Validate(s)
	if report.OK() {
		t.Fatal("expected weight-sum error")
	}
	if !strings.Contains(report.Errors[0], "weights sum") {
		t.Errorf("unexpected error: %q", report.Errors[0])
	}
}

func TestValidate_WeightRange(t *testing.T) {
	catalog := testCatalogHeader +
		"TE-01,A,A,Émotion,I_p,,1.5,-0.3,-0.2,f,k\n" // sums to 1.0 but out of range
	s, err := Load(writeCatalog(t, catalog), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	report := Validate(s)
	if report.OK() {
		t.Fatal("expected range errors")
	}
}

func TestValidate_PrimaryMismatchIsWarning(t *testing.T) {
	// Primary says I_p but N_s dominates by more than the 0.1 slack
	catalog := testCatalogHeader +
		"TE-01,A,A,Émotion,I_p,,0.2,0.6,0.2,f,k\n"
	s, err := Load(writeCatalog(t, catalog), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	report := Validate(s)
	if !report.OK() {
		t.Errorf("primary mismatch must not be an error: %v", report.Errors)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected a primary-mismatch warning")
	}
	if !strings.Contains(report.Warnings[0], "highest weight") {
		t.Errorf("unexpected warning: %q", report.Warnings[0])
	}
}

func TestValidate_PrimaryWithinSlack(t *testing.T) {
	// Near-tie within 0.1 of the max: tolerated silently
	catalog := testCatalogHeader +
		"TE-01,A,A,Émotion,N_s,,0.45,0.4,0.15,f,k\n"
	s, err := Load(writeCatalog(t, catalog), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	report := Validate(s)
	for _, w := range report.Warnings {
		if strings.Contains(w, "highest weight") {
			t.Errorf("near-tie should not warn: %q", w)
		}
	}
}

func TestValidate_UnknownFamily(t *testing.T) {
	catalog := testCatalogHeader +
		"TE-01,A,A,Inconnu,I_p,,0.6,0.2,0.2,f,k\n"
	s, err := Load(writeCatalog(t, catalog), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	report := Validate(s)
	if !report.OK() {
		t.Errorf("unknown family must not be an error: %v", report.Errors)
	}
	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "unknown family") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown-family warning, got %v", report.Warnings)
	}
}

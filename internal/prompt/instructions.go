package prompt

import "fmt"

func frenchInstructions(schema string, withDima bool) string {
	header := `INSTRUCTIONS POUR L'ANALYSE:

Analyse ce contenu pour identifier :

1. TECHNIQUES DE PROPAGANDE (Intensité persuasive → propaganda_score 0-100) :
   - Manipulation émotionnelle (peur, colère, indignation, urgence)
   - Cadrage "eux vs nous" / désignation d'un bouc émissaire
   - Langage chargé / mots sensationnalistes
   - Sélection partielle des faits (cherry-picking)
   - Appel à l'autorité sans preuves
   - Généralisation abusive
   - Faux dilemmes / pensée binaire

2. MARQUEURS CONSPIRATIONNISTES (Narratif spéculatif → conspiracy_score 0-100) :
   - Narratives de "vérité cachée" / révélation
   - Défiance envers institutions/experts/médias mainstream
   - Recherche de patterns dans le bruit
   - Affirmations infalsifiables
   - Rhétorique "ils ne veulent pas que tu saches"
   - Théories causales simplistes pour phénomènes complexes

3. DÉSINFORMATION & MANIPULATION (Fiabilité factuelle → misinfo_score 0-100) :
   - Affirmations non sourcées présentées comme faits
   - Sophismes logiques identifiables
   - Information hors contexte
   - Statistiques trompeuses
   - Confusion corrélation/causalité
   - Omission d'informations cruciales
   - Fausses équivalences
`

	perTechnique := ""
	if withDima {
		perTechnique = `
POUR CHAQUE TECHNIQUE DÉTECTÉE:
- Cite le CODE DIMA exact (ex: TE-58)
- Indique la FAMILLE DIMA (ex: "Diversion")
- Fournis le NOM de la technique
- Extrais une CITATION exacte comme preuve (evidence)
- Évalue la SÉVÉRITÉ: high/medium/low
- Fournis une EXPLICATION détaillée (2-3 phrases)
`
	}

	return fmt.Sprintf("%s%s\nRÉPONDS UNIQUEMENT EN JSON VALIDE dans ce format exact :\n%s\n", header, perTechnique, schema)
}

func englishInstructions(schema string, withDima bool) string {
	header := `ANALYSIS INSTRUCTIONS:

Analyze this content to identify:

1. PROPAGANDA TECHNIQUES (persuasive intensity → propaganda_score 0-100):
   - Emotional manipulation (fear, anger, outrage, urgency)
   - "Us vs them" framing / scapegoating
   - Loaded language / sensationalist wording
   - Cherry-picking of facts
   - Appeal to authority without evidence
   - Overgeneralization
   - False dilemmas / binary thinking

2. CONSPIRACY MARKERS (speculative narrative → conspiracy_score 0-100):
   - "Hidden truth" / revelation narratives
   - Distrust of institutions/experts/mainstream media
   - Pattern-seeking in noise
   - Unfalsifiable claims
   - "They don't want you to know" rhetoric
   - Simplistic causal theories for complex phenomena

3. MISINFORMATION & MANIPULATION (factual reliability → misinfo_score 0-100):
   - Unsourced claims presented as facts
   - Identifiable logical fallacies
   - Out-of-context information
   - Misleading statistics
   - Correlation/causation confusion
   - Omission of crucial information
   - False equivalences
`

	perTechnique := ""
	if withDima {
		perTechnique = `
FOR EACH DETECTED TECHNIQUE:
- Cite the exact DIMA CODE (e.g. TE-58)
- Give the DIMA FAMILY (e.g. "Diversion")
- Give the technique NAME
- Extract an exact QUOTE as evidence
- Rate the SEVERITY: high/medium/low
- Provide a detailed EXPLANATION (2-3 sentences)
`
	}

	return fmt.Sprintf("%s%s\nANSWER ONLY WITH VALID JSON in this exact format:\n%s\n", header, perTechnique, schema)
}

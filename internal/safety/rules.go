package safety

import "strings"

// InteractionRule pairs two drug keywords with a warning. Management
// defaults to reinforced clinical monitoring when a rule carries no
// specific guidance.
type InteractionRule struct {
	A          string
	B          string
	Severity   Severity
	Message    string
	Management string
}

// ComorbidityRule ties a medical-history keyword to drug keywords that
// warrant caution for that condition.
type ComorbidityRule struct {
	Condition string
	Drugs     []string
	Message   string
}

// RuleSource supplies the rule tables consulted by the validator. The
// static implementation below uses keyword matching; a richer terminology
// service can be swapped in without touching the validator's control flow.
type RuleSource interface {
	Interactions() []InteractionRule
	ComorbidityRules() []ComorbidityRule
	TraditionalRules() []InteractionRule
}

// StaticRules is the built-in table set, loaded once and read-only for the
// process lifetime. The tables are necessarily incomplete: absence of a
// rule is not evidence of safety.
type StaticRules struct{}

func (StaticRules) Interactions() []InteractionRule {
	return interactionTable
}

func (StaticRules) ComorbidityRules() []ComorbidityRule {
	return comorbidityTable
}

func (StaticRules) TraditionalRules() []InteractionRule {
	return traditionalTable
}

var interactionTable = []InteractionRule{
	{
		A: "warfarin", B: "aspirin", Severity: SeverityCritical,
		Message:    "Warfarin with aspirin markedly increases bleeding risk.",
		Management: "Avoid combination; if unavoidable, monitor INR closely.",
	},
	{
		A: "warfarin", B: "ibuprofen", Severity: SeverityModerate,
		Message: "NSAIDs potentiate warfarin and raise gastrointestinal bleeding risk.",
	},
	{
		A: "sildenafil", B: "nitroglycerin", Severity: SeverityCritical,
		Message:    "PDE5 inhibitors with nitrates cause severe hypotension.",
		Management: "Contraindicated; coordinate cardiology review.",
	},
	{
		A: "tadalafil", B: "nitroglycerin", Severity: SeverityCritical,
		Message:    "PDE5 inhibitors with nitrates cause severe hypotension.",
		Management: "Contraindicated; coordinate cardiology review.",
	},
	{
		A: "lisinopril", B: "spironolactone", Severity: SeverityModerate,
		Message: "ACE inhibitor with potassium-sparing diuretic risks hyperkalemia.",
	},
	{
		A: "lisinopril", B: "ibuprofen", Severity: SeverityModerate,
		Message: "NSAIDs blunt ACE inhibitor effect and strain renal function.",
	},
	{
		A: "tramadol", B: "fluoxetine", Severity: SeverityModerate,
		Message: "Tramadol with an SSRI raises serotonin syndrome risk.",
	},
	{
		A: "tramadol", B: "sertraline", Severity: SeverityModerate,
		Message: "Tramadol with an SSRI raises serotonin syndrome risk.",
	},
	{
		A: "clarithromycin", B: "simvastatin", Severity: SeverityModerate,
		Message: "Macrolides inhibit statin metabolism; myopathy risk increases.",
	},
	{
		A: "metformin", B: "furosemide", Severity: SeverityModerate,
		Message: "Loop diuretics can impair renal clearance of metformin.",
	},
	{
		A: "amlodipine", B: "sildenafil", Severity: SeverityModerate,
		Message: "Additive hypotensive effect; monitor blood pressure during initiation.",
	},
}

var comorbidityTable = []ComorbidityRule{
	{
		Condition: "renal",
		Drugs:     []string{"ibuprofen", "naproxen", "diclofenac", "gentamicin", "metformin"},
		Message:   "Renal impairment history: %s is potentially nephrotoxic or renally cleared; prefer conservative dosing.",
	},
	{
		Condition: "kidney",
		Drugs:     []string{"ibuprofen", "naproxen", "diclofenac", "gentamicin", "metformin"},
		Message:   "Renal impairment history: %s is potentially nephrotoxic or renally cleared; prefer conservative dosing.",
	},
	{
		Condition: "hepat",
		Drugs:     []string{"paracetamol", "simvastatin", "atorvastatin", "methotrexate"},
		Message:   "Hepatic impairment history: %s requires lower dosing and liver function monitoring.",
	},
	{
		Condition: "liver",
		Drugs:     []string{"paracetamol", "simvastatin", "atorvastatin", "methotrexate"},
		Message:   "Hepatic impairment history: %s requires lower dosing and liver function monitoring.",
	},
	{
		Condition: "asthm",
		Drugs:     []string{"aspirin", "ibuprofen", "propranolol"},
		Message:   "Asthma history: %s can provoke bronchospasm; consider an alternative.",
	},
	{
		Condition: "ulcer",
		Drugs:     []string{"aspirin", "ibuprofen", "naproxen", "diclofenac"},
		Message:   "Peptic ulcer history: %s raises gastrointestinal bleeding risk; add gastric protection if unavoidable.",
	},
	{
		Condition: "diabet",
		Drugs:     []string{"prednisolone", "dexamethasone", "hydrochlorothiazide"},
		Message:   "Diabetes history: %s can worsen glycemic control; reinforce glucose monitoring.",
	},
	{
		Condition: "hypertension",
		Drugs:     []string{"ibuprofen", "naproxen", "pseudoephedrine"},
		Message:   "Hypertension history: %s can raise blood pressure; monitor closely.",
	},
}

// Traditional and herbal remedies in common local use. Consulted only when
// the caller asks for traditional-medicine checks.
var traditionalTable = []InteractionRule{
	{
		A: "warfarin", B: "ginger", Severity: SeverityModerate,
		Message: "Ginger preparations can potentiate anticoagulants; bleeding risk.",
	},
	{
		A: "warfarin", B: "garlic", Severity: SeverityModerate,
		Message: "Concentrated garlic preparations can potentiate anticoagulants.",
	},
	{
		A: "warfarin", B: "ginkgo", Severity: SeverityModerate,
		Message: "Ginkgo biloba increases bleeding risk with anticoagulants.",
	},
	{
		A: "fluoxetine", B: "millepertuis", Severity: SeverityModerate,
		Message: "St John's wort (millepertuis) with an SSRI risks serotonin syndrome.",
	},
	{
		A: "sertraline", B: "millepertuis", Severity: SeverityModerate,
		Message: "St John's wort (millepertuis) with an SSRI risks serotonin syndrome.",
	},
	{
		A: "paracetamol", B: "ayapana", Severity: SeverityInfo,
		Message: "Ayapana infusions are common self-medication; confirm total paracetamol intake.",
	},
}

// accentFolder maps the Latin-1 diacritics that appear in French drug and
// condition names onto plain ASCII, so "Paracétamol" matches a recorded
// "Paracetamol" allergy.
var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
)

// normalize lowercases, trims and accent-folds a name for keyword matching.
func normalize(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func containsKeyword(name, keyword string) bool {
	return strings.Contains(normalize(name), normalize(keyword))
}

package safety

// DrugProfile is the per-drug reference record served by the drug
// information endpoint and consulted during verification.
type DrugProfile struct {
	Name              string   `json:"name"`
	GenericName       string   `json:"genericName"`
	DrugClass         string   `json:"drugClass"`
	Indications       []string `json:"indications"`
	Contraindications []string `json:"contraindications"`
	Interactions      []string `json:"interactions"`
	LocalNote         string   `json:"localNote,omitempty"`
	Matched           bool     `json:"matched"`
}

// Formulary resolves a free-text medication name to a profile.
type Formulary interface {
	Lookup(name string) DrugProfile
}

// StaticFormulary is the built-in reference table, keyed by generic-name
// keyword. Loaded once, read-only for the process lifetime.
type StaticFormulary struct{}

func (StaticFormulary) Lookup(name string) DrugProfile {
	for _, p := range formularyTable {
		if containsKeyword(name, p.GenericName) {
			out := p
			out.Name = name
			out.Matched = true
			return out
		}
	}
	// Unknown names still get a record; omitting them would hide the gap
	// from the reviewing clinician.
	return DrugProfile{
		Name:              name,
		GenericName:       "unknown",
		DrugClass:         "unclassified",
		Indications:       []string{"Not found in reference table."},
		Contraindications: []string{"Unknown; consult a healthcare professional before use."},
		Interactions:      []string{"Unknown; consult a healthcare professional or pharmacist."},
	}
}

var formularyTable = []DrugProfile{
	{
		GenericName: "paracetamol",
		DrugClass:   "analgesic/antipyretic",
		Indications: []string{"Mild to moderate pain", "Fever"},
		Contraindications: []string{
			"Severe hepatic impairment",
			"Paracetamol hypersensitivity",
		},
		Interactions: []string{"Warfarin (high sustained doses)", "Alcohol"},
		LocalNote:    "Widely available over the counter; check combination cold remedies for hidden paracetamol.",
	},
	{
		GenericName: "ibuprofen",
		DrugClass:   "NSAID",
		Indications: []string{"Pain", "Inflammation", "Fever"},
		Contraindications: []string{
			"Active peptic ulcer",
			"Severe renal impairment",
			"Third trimester pregnancy",
			"Aspirin-sensitive asthma",
		},
		Interactions: []string{"Warfarin", "ACE inhibitors", "Lithium", "Methotrexate"},
	},
	{
		GenericName: "amoxicillin",
		DrugClass:   "penicillin antibiotic",
		Indications: []string{"Respiratory tract infections", "Urinary tract infections", "Otitis media"},
		Contraindications: []string{
			"Penicillin allergy",
		},
		Interactions: []string{"Methotrexate", "Oral anticoagulants"},
	},
	{
		GenericName: "aspirin",
		DrugClass:   "antiplatelet/NSAID",
		Indications: []string{"Cardiovascular prophylaxis", "Pain", "Fever"},
		Contraindications: []string{
			"Active bleeding",
			"Children under 16 (Reye syndrome)",
			"Aspirin-sensitive asthma",
		},
		Interactions: []string{"Warfarin", "Other NSAIDs", "Methotrexate"},
	},
	{
		GenericName: "omeprazole",
		DrugClass:   "proton pump inhibitor",
		Indications: []string{"Gastro-oesophageal reflux", "Peptic ulcer", "NSAID gastroprotection"},
		Contraindications: []string{
			"Hypersensitivity to proton pump inhibitors",
		},
		Interactions: []string{"Clopidogrel", "Methotrexate"},
	},
	{
		GenericName: "metformin",
		DrugClass:   "biguanide antidiabetic",
		Indications: []string{"Type 2 diabetes"},
		Contraindications: []string{
			"Severe renal impairment (eGFR < 30)",
			"Acute conditions with tissue hypoxia",
		},
		Interactions: []string{"Iodinated contrast media", "Loop diuretics", "Alcohol"},
	},
	{
		GenericName: "amlodipine",
		DrugClass:   "calcium channel blocker",
		Indications: []string{"Hypertension", "Angina"},
		Contraindications: []string{
			"Cardiogenic shock",
			"Severe aortic stenosis",
		},
		Interactions: []string{"Simvastatin (dose cap)", "PDE5 inhibitors"},
	},
	{
		GenericName: "atorvastatin",
		DrugClass:   "statin",
		Indications: []string{"Hypercholesterolaemia", "Cardiovascular prevention"},
		Contraindications: []string{
			"Active liver disease",
			"Pregnancy",
		},
		Interactions: []string{"Macrolide antibiotics", "Grapefruit juice", "Fibrates"},
	},
	{
		GenericName: "salbutamol",
		DrugClass:   "short-acting beta-2 agonist",
		Indications: []string{"Asthma", "Bronchospasm"},
		Contraindications: []string{
			"Hypersensitivity to salbutamol",
		},
		Interactions: []string{"Beta-blockers", "Other sympathomimetics"},
	},
	{
		GenericName: "cetirizine",
		DrugClass:   "antihistamine",
		Indications: []string{"Allergic rhinitis", "Urticaria"},
		Contraindications: []string{
			"End-stage renal disease",
		},
		Interactions: []string{"CNS depressants", "Alcohol"},
	},
	{
		GenericName: "warfarin",
		DrugClass:   "vitamin K antagonist",
		Indications: []string{"Atrial fibrillation", "Venous thromboembolism"},
		Contraindications: []string{
			"Active bleeding",
			"Pregnancy",
			"Uncontrolled hypertension",
		},
		Interactions: []string{"NSAIDs", "Aspirin", "Many antibiotics", "Herbal preparations (ginger, garlic, ginkgo)"},
		LocalNote:    "Requires regular INR monitoring; confirm laboratory access before prescribing.",
	},
	{
		GenericName: "prednisolone",
		DrugClass:   "corticosteroid",
		Indications: []string{"Inflammatory conditions", "Severe asthma exacerbation"},
		Contraindications: []string{
			"Systemic untreated infection",
		},
		Interactions: []string{"NSAIDs", "Antidiabetics", "Live vaccines"},
	},
}

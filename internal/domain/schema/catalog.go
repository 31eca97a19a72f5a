package schema

// Field names. They double as CSV column names and request keys.
const (
	BloodGlucose        = "blood_glucose"
	PhysicalActivity    = "physical_activity"
	Diet                = "diet"
	MedicationAdherence = "medication_adherence"
	StressLevel         = "stress_level"
	SleepHours          = "sleep_hours"
	HydrationLevel      = "hydration_level"
	Age                 = "age"
	Weight              = "weight"
	Height              = "height"
	ActivityLevel       = "activity_level"
)

// FeatureSet names a predefined ordered list of features.
type FeatureSet string

const (
	// FeatureSetCore is the six daily fields collected by the entry form.
	FeatureSetCore FeatureSet = "core"
	// FeatureSetExtended adds hydration and the user profile fields.
	FeatureSetExtended FeatureSet = "extended"
)

var coreOrder = []string{
	BloodGlucose,
	PhysicalActivity,
	Diet,
	MedicationAdherence,
	StressLevel,
	SleepHours,
}

var extendedOrder = append(append([]string{}, coreOrder...),
	HydrationLevel,
	Age,
	Weight,
	Height,
	ActivityLevel,
)

var catalog = map[string]Field{
	BloodGlucose:     {Name: BloodGlucose, Kind: KindPositiveInt},
	PhysicalActivity: {Name: PhysicalActivity, Kind: KindNonNegativeInt},
	Diet: {Name: Diet, Kind: KindCategorical, Categories: []Category{
		{Label: "healthy", Code: 1},
		{Label: "unhealthy", Code: 0},
	}},
	MedicationAdherence: {Name: MedicationAdherence, Kind: KindCategorical, Categories: []Category{
		{Label: "good", Code: 1},
		{Label: "poor", Code: 0},
	}},
	StressLevel: {Name: StressLevel, Kind: KindCategorical, Categories: []Category{
		{Label: "low", Code: 0},
		{Label: "medium", Code: 1},
		{Label: "high", Code: 2},
	}},
	SleepHours: {Name: SleepHours, Kind: KindNonNegativeDecimal},
	HydrationLevel: {Name: HydrationLevel, Kind: KindCategorical, Categories: []Category{
		{Label: "yes", Code: 1},
		{Label: "no", Code: 0},
	}},
	Age:    {Name: Age, Kind: KindPositiveInt},
	Weight: {Name: Weight, Kind: KindPositiveDecimal},
	Height: {Name: Height, Kind: KindPositiveDecimal},
	ActivityLevel: {Name: ActivityLevel, Kind: KindCategorical, Categories: []Category{
		{Label: "low", Code: 0},
		{Label: "moderate", Code: 1},
		{Label: "high", Code: 2},
	}},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Field, bool) {
	f, ok := catalog[name]
	return f, ok
}

// FeatureNames returns the ordered feature names of a predefined set.
func FeatureNames(set FeatureSet) ([]string, error) {
	switch set {
	case FeatureSetCore:
		return append([]string(nil), coreOrder...), nil
	case FeatureSetExtended:
		return append([]string(nil), extendedOrder...), nil
	default:
		return nil, ErrUnknownFeatureSet
	}
}

package ml

import "fmt"

// Field is one input of a condition's feature map. Name is the key callers send,
// Column is the dataset column the artifacts were fit on.
type Field struct {
	Name    string   `json:"name"`
	Column  string   `json:"column"`
	Aliases []string `json:"aliases,omitempty"`
}

var heartFields = []Field{
	{Name: "age", Column: "age"},
	{Name: "sex", Column: "sex"},
	{Name: "chestPainType", Column: "chest pain type"},
	{Name: "restingBP", Column: "resting bp s"},
	{Name: "cholesterol", Column: "cholesterol"},
	{Name: "fastingBS", Column: "fasting blood sugar"},
	{Name: "restingECG", Column: "resting ecg"},
	{Name: "maxHR", Column: "max heart rate"},
	{Name: "exerciseAngina", Column: "exercise angina"},
	{Name: "oldpeak", Column: "oldpeak"},
	{Name: "slope", Column: "ST slope", Aliases: []string{"stSlope"}},
}

var parkinsonsFields = []Field{
	{Name: "mdvpFo", Column: "MDVP:Fo(Hz)"},
	{Name: "mdvpFhi", Column: "MDVP:Fhi(Hz)"},
	{Name: "mdvpFlo", Column: "MDVP:Flo(Hz)"},
	{Name: "mdvpJitterPercent", Column: "MDVP:Jitter(%)"},
	{Name: "mdvpJitterAbs", Column: "MDVP:Jitter(Abs)"},
	{Name: "mdvpRAP", Column: "MDVP:RAP"},
	{Name: "mdvpPPQ", Column: "MDVP:PPQ"},
	{Name: "jitterDDP", Column: "Jitter:DDP"},
	{Name: "shimmer", Column: "MDVP:Shimmer"},
	{Name: "shimmerDB", Column: "MDVP:Shimmer(dB)"},
	{Name: "shimmerAPQ3", Column: "Shimmer:APQ3"},
	{Name: "shimmerAPQ5", Column: "Shimmer:APQ5"},
	{Name: "shimmerAPQ", Column: "MDVP:APQ"},
	{Name: "shimmerDDA", Column: "Shimmer:DDA"},
	{Name: "nhr", Column: "NHR"},
	{Name: "hnr", Column: "HNR"},
	{Name: "rpde", Column: "RPDE"},
	{Name: "dfa", Column: "DFA"},
	{Name: "spread1", Column: "spread1"},
	{Name: "spread2", Column: "spread2"},
	{Name: "d2", Column: "D2"},
	{Name: "ppe", Column: "PPE"},
}

var diabetesFields = []Field{
	{Name: "pregnancies", Column: "Pregnancies"},
	{Name: "glucose", Column: "Glucose"},
	{Name: "bloodPressure", Column: "BloodPressure"},
	{Name: "skinThickness", Column: "SkinThickness"},
	{Name: "insulin", Column: "Insulin"},
	{Name: "bmi", Column: "BMI"},
	{Name: "diabetesPedigree", Column: "DiabetesPedigreeFunction", Aliases: []string{"diabetesPedigreeFunction"}},
	{Name: "age", Column: "Age"},
}

// Fields returns the ordered feature map for c. The order matches the column
// order of the condition's scaler and classifier; callers must not modify it.
func Fields(c Condition) ([]Field, error) {
	switch c {
	case Heart:
		return heartFields, nil
	case Parkinsons:
		return parkinsonsFields, nil
	case Diabetes:
		return diabetesFields, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCondition, c)
	}
}

func FieldNames(c Condition) ([]string, error) {
	fields, err := Fields(c)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names, nil
}

// FeatureCount is the vector width expected for c, or 0 for unknown conditions.
func FeatureCount(c Condition) int {
	fields, err := Fields(c)
	if err != nil {
		return 0
	}
	return len(fields)
}

// Keys returns the canonical name followed by any accepted aliases.
func (f Field) Keys() []string {
	return append([]string{f.Name}, f.Aliases...)
}

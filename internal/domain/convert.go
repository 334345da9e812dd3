package domain

// ConvertTemperature converts a temperature between "C" and "F".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertTemperature(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "C" && to == "F" {
		return v*9/5 + 32
	}
	if from == "F" && to == "C" {
		return (v - 32) * 5 / 9
	}
	return v
}

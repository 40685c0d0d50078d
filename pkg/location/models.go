package location

// Location represents one reading from the host's location source. Speed
// is meters per second and stays zero when the source cannot measure it.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Speed     float64
}

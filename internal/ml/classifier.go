package ml

// Classifier is the capability surface the serving layer sees: a trained
// model that maps a feature vector to a class index and a probability per
// class. Implementations must be safe for concurrent use after load.
type Classifier interface {
	// Predict runs inference on a single feature vector. It returns the
	// predicted class index and the full probability vector; classIndex
	// always indexes into the returned vector.
	Predict(features []float64) (classIndex int, probabilities []float64, err error)

	// Descriptor reports what the loaded artifact exposes about itself
	Descriptor() Descriptor

	// Close releases any resources held by the model
	Close()
}

// Descriptor holds the dimensions a model artifact declares at load time.
// A zero value means the artifact does not declare that dimension and the
// metadata store applies its documented fallback instead.
type Descriptor struct {
	FeatureCount int
	NumClasses   int
}

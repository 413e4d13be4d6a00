package device

// Platform values stored in the device_tokens directory. Only iOS is
// delivered today; the column exists so other platforms can be added
// without a schema change.
const (
	PlatformIOS = "ios"
)

// Endpoint is one registered app install capable of receiving a push.
type Endpoint struct {
	Token    string
	Platform string
}

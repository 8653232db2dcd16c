package enums

import "fmt"

// QRDestination selects which redirect rule applies when a code is scanned.
type QRDestination string

const (
	QRDestinationProduct QRDestination = "product"
	QRDestinationCart    QRDestination = "cart"
)

var validQRDestinations = []QRDestination{
	QRDestinationProduct,
	QRDestinationCart,
}

// String implements fmt.Stringer.
func (d QRDestination) String() string {
	return string(d)
}

// IsValid reports whether the value is a known QRDestination.
func (d QRDestination) IsValid() bool {
	for _, candidate := range validQRDestinations {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseQRDestination converts raw input into a QRDestination.
func ParseQRDestination(value string) (QRDestination, error) {
	for _, candidate := range validQRDestinations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid destination %q", value)
}

package negotiation

import (
	"fmt"
	"strings"
)

// ContactShareText renders the text body sent when a participant shares their
// contact details inside the thread.
func ContactShareText(name, phone string) (string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", fmt.Errorf("%w: phone is required to share contact", ErrInvalidInput)
	}
	if name == "" {
		return fmt.Sprintf("Contact shared: %s", phone), nil
	}
	return fmt.Sprintf("Contact shared: %s, %s", name, phone), nil
}

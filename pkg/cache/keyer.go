package cache

import "fmt"

// Keyer generates cache keys.
type Keyer interface {
	// RenderKey identifies rendered markup for one attribute snapshot.
	RenderKey(snapshotHash string, opts RenderKeyOpts) string

	// RegistrationKey identifies a registration document for a schema version.
	RegistrationKey(version int) string
}

// RenderKeyOpts are the render inputs besides the snapshot itself.
type RenderKeyOpts struct {
	Mode     string `json:"mode"`
	Day      string `json:"day"`
	Location string `json:"location"`
}

// DefaultKeyer produces keys of the form "render:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) RenderKey(snapshotHash string, opts RenderKeyOpts) string {
	return hashKey("render", snapshotHash, opts)
}

func (DefaultKeyer) RegistrationKey(version int) string {
	return fmt.Sprintf("registration:v%d", version)
}

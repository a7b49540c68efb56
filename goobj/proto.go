package goobj

// Proto is the host interface sample objects return, for testing purpose.
type Proto interface {
	Name() string
	Action() string
}

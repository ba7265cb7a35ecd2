package chathub

// SupersessionPolicy decides what happens to a user's previous connection
// when the same user registers a new one. next is nil when the new
// connection was never attached.
type SupersessionPolicy func(previous, next Client)

// KeepPrevious leaves the old connection open. It keeps receiving broadcasts
// but is no longer addressable by user id.
func KeepPrevious(previous, next Client) {}

// ClosePrevious disconnects the old connection.
func ClosePrevious(previous, next Client) {
	previous.Close()
}

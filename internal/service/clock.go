package service

import "time"

// Clock supplies the server's notion of "now". All stored timestamps come
// from it, never from the client.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

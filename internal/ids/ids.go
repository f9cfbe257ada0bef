// Package ids generates the sortable opaque identifiers used for every
// record the exchange creates.
package ids

import "github.com/segmentio/ksuid"

func New() string {
	return ksuid.New().String()
}

package keymon

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Keymap reads the server-side pressed-key state. The real implementation
// wraps xproto.QueryKeymap; tests script snapshots instead.
type Keymap interface {
	// Snapshot returns the 256-bit pressed-key bitvector: bit k of the
	// keyboard lives at byte k>>3, bit k&7.
	Snapshot() ([32]byte, error)
}

// xKeymap samples the keymap over a dedicated X connection. QueryKeymap is a
// read-only core-protocol request: unlike a grab it observes key state
// without stealing delivery from any other client.
type xKeymap struct {
	conn *xgb.Conn
}

func (k *xKeymap) Snapshot() ([32]byte, error) {
	reply, err := xproto.QueryKeymap(k.conn).Reply()
	if err != nil {
		return [32]byte{}, err
	}
	var keys [32]byte
	copy(keys[:], reply.Keys)
	return keys, nil
}

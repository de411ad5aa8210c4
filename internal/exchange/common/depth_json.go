package common

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Wire format for depth snapshots: prices and quantities travel as decimal
// strings in [price, qty] pairs, the way the exchange ships them:
//
//	{"bids": [["50000.00","0.01"], ...], "asks": [["50010.00","0.5"], ...]}

type depthWire struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
}

func levelsToWire(levels []Level) [][2]string {
	out := make([][2]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, [2]string{
			strconv.FormatFloat(l.Price, 'f', -1, 64),
			strconv.FormatFloat(l.Qty, 'f', -1, 64),
		})
	}
	return out
}

func levelsFromWire(rows [][2]string) ([]Level, error) {
	out := make([]Level, 0, len(rows))
	for _, r := range rows {
		price, err := strconv.ParseFloat(r[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse level price %q: %w", r[0], err)
		}
		qty, err := strconv.ParseFloat(r[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse level qty %q: %w", r[1], err)
		}
		out = append(out, Level{Price: price, Qty: qty})
	}
	return out, nil
}

func (d Depth) MarshalJSON() ([]byte, error) {
	return json.Marshal(depthWire{Bids: levelsToWire(d.Bids), Asks: levelsToWire(d.Asks)})
}

func (d *Depth) UnmarshalJSON(data []byte) error {
	var w depthWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	bids, err := levelsFromWire(w.Bids)
	if err != nil {
		return err
	}
	asks, err := levelsFromWire(w.Asks)
	if err != nil {
		return err
	}
	d.Bids, d.Asks = bids, asks
	return nil
}

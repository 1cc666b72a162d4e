package storefront

import (
	"bytes"
	"encoding/json"
	"errors"
)

// priceText accepts either a JSON string or a JSON number and keeps its text so
// the ledger does the parsing.
type priceText string

func (p *priceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*p = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("price must be a string or a number")
	}
	*p = priceText(n.String())
	return nil
}

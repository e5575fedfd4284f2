package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CartRequest est le corps d'une demande de tarif.
// Le callback transporteur enveloppe les lignes dans "rate".
type CartRequest struct {
	Items []CartItem `json:"items"`
	Rate  *struct {
		Items    []CartItem `json:"items"`
		Currency string     `json:"currency,omitempty"`
	} `json:"rate,omitempty"`
}

// LineItems retourne les lignes du panier quelle que soit l'enveloppe
func (r CartRequest) LineItems() []CartItem {
	if len(r.Items) == 0 && r.Rate != nil {
		return r.Rate.Items
	}
	return r.Items
}

type CartItem struct {
	ProductID ProductID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ProductID accepte un identifiant JSON chaîne ou numérique
type ProductID string

func (p *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product_id invalide: %s", string(data))
	}
	*p = ProductID(n.String())
	return nil
}

func (p ProductID) String() string { return string(p) }

// Package glossary holds the curated Odoo ERP terminology tables used to
// keep translations consistent. Built-in tables are read-only at runtime;
// user-defined terms from the store are merged on top and win on conflict.
package glossary

import "strings"

// builtin maps "source|target" language pairs to term tables. These are the
// canonical Odoo terms; the English→X direction is authoritative and the
// reverse direction is derived from it.
var builtin = map[string]map[string]string{
	"en|fr": {
		"Invoice":        "Facture",
		"Quotation":      "Devis",
		"Sales":          "Ventes",
		"Purchase Order": "Bon de commande",
		"Delivery Order": "Bon de livraison",
		"Partner":        "Partenaire",
		"Customer":       "Client",
		"Vendor":         "Fournisseur",
		"Stock":          "Stock",
		"Warehouse":      "Entrepôt",
		"Payment":        "Paiement",
		"Accounting":     "Comptabilité",
	},
	"en|es": {
		"Invoice":        "Factura",
		"Quotation":      "Presupuesto",
		"Sales":          "Ventas",
		"Purchase Order": "Orden de compra",
		"Customer":       "Cliente",
		"Vendor":         "Proveedor",
		"Warehouse":      "Almacén",
		"Payment":        "Pago",
	},
}

func pairKey(sourceLang, targetLang string) string {
	return strings.ToLower(sourceLang) + "|" + strings.ToLower(targetLang)
}

// Builtin returns the built-in term table for a language pair. For reverse
// directions of a known pair the table is inverted (e.g. fr→en yields
// "Facture" → "Invoice"). Unknown pairs yield an empty map.
func Builtin(sourceLang, targetLang string) map[string]string {
	out := make(map[string]string)
	if direct, ok := builtin[pairKey(sourceLang, targetLang)]; ok {
		for src, tgt := range direct {
			out[src] = tgt
		}
		return out
	}
	if inverse, ok := builtin[pairKey(targetLang, sourceLang)]; ok {
		for src, tgt := range inverse {
			out[tgt] = src
		}
	}
	return out
}

// Terms merges the built-in table for the pair with user-defined terms.
// User terms override built-ins for the same source term.
func Terms(sourceLang, targetLang string, user map[string]string) map[string]string {
	out := Builtin(sourceLang, targetLang)
	for src, tgt := range user {
		out[src] = tgt
	}
	return out
}

// Match returns the glossary translation for text when the whole text is a
// single glossary term (case-insensitive, surrounding whitespace ignored).
func Match(terms map[string]string, text string) (string, bool) {
	needle := strings.TrimSpace(text)
	for src, tgt := range terms {
		if strings.EqualFold(src, needle) {
			return tgt, true
		}
	}
	return "", false
}

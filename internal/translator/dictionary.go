package translator

// rule is one source→target substitution.
type rule struct {
	from string
	to   string
}

// pairRules holds the phrase and single-word tables for one language pair.
// Phrases are applied before words so multi-word terms survive intact.
type pairRules struct {
	phrases []rule
	words   []rule
}

// offlineDictionary covers the language pairs the offline provider can
// handle without network access. The tables are small on purpose: common
// Odoo business vocabulary, not general language coverage.
var offlineDictionary = map[string]pairRules{
	"en|fr": {
		phrases: []rule{
			{"purchase order", "bon de commande"},
			{"sales order", "commande client"},
			{"delivery order", "bon de livraison"},
			{"quotation", "devis"},
			{"confirm the order", "confirmer la commande"},
			{"confirm order", "confirmer la commande"},
			{"create invoice", "créer la facture"},
			{"customer invoice", "facture client"},
			{"vendor bill", "facture fournisseur"},
			{"total amount", "montant total"},
			{"payment terms", "conditions de paiement"},
		},
		words: []rule{
			{"confirm", "confirmer"},
			{"confirming", "confirmation"},
			{"confirmations", "confirmations"},
			{"order", "commande"},
			{"orders", "commandes"},
			{"customer", "client"},
			{"customers", "clients"},
			{"vendor", "fournisseur"},
			{"vendors", "fournisseurs"},
			{"invoice", "facture"},
			{"invoices", "factures"},
			{"quotation", "devis"},
			{"quotations", "devis"},
			{"delivery", "livraison"},
			{"product", "article"},
			{"products", "articles"},
			{"amount", "montant"},
			{"amounts", "montants"},
			{"total", "total"},
			{"create", "créer"},
			{"new", "nouveau"},
			{"draft", "brouillon"},
			{"validate", "valider"},
			{"warehouse", "entrepôt"},
			{"stock", "stock"},
			{"partner", "partenaire"},
			{"payment", "paiement"},
			{"payments", "paiements"},
			{"due", "dû"},
			{"deadline", "échéance"},
			{"comment", "commentaire"},
			{"comments", "commentaires"},
			{"please", "veuillez"},
			{"save", "enregistrer"},
			{"cancel", "annuler"},
			{"apply", "appliquer"},
			{"lines", "lignes"},
		},
	},
	"fr|en": {
		phrases: []rule{
			{"bon de commande", "purchase order"},
			{"bon de livraison", "delivery order"},
			{"facture client", "customer invoice"},
			{"facture fournisseur", "vendor bill"},
			{"confirmer la commande", "confirm the order"},
			{"montant total", "total amount"},
		},
		words: []rule{
			{"commande", "order"},
			{"commandes", "orders"},
			{"client", "customer"},
			{"clients", "customers"},
			{"fournisseur", "vendor"},
			{"fournisseurs", "vendors"},
			{"facture", "invoice"},
			{"factures", "invoices"},
			{"devis", "quotation"},
			{"livraison", "delivery"},
			{"article", "product"},
			{"articles", "products"},
			{"montant", "amount"},
			{"montants", "amounts"},
			{"paiement", "payment"},
			{"paiements", "payments"},
			{"valider", "validate"},
			{"créer", "create"},
			{"annuler", "cancel"},
			{"enregistrer", "save"},
			{"commentaire", "comment"},
			{"commentaires", "comments"},
			{"entrepôt", "warehouse"},
		},
	},
	"en|es": {
		phrases: []rule{
			{"sales order", "orden de venta"},
			{"purchase order", "orden de compra"},
			{"confirm the order", "confirmar el pedido"},
		},
		words: []rule{
			{"order", "pedido"},
			{"orders", "pedidos"},
			{"invoice", "factura"},
			{"invoices", "facturas"},
			{"customer", "cliente"},
			{"customers", "clientes"},
			{"total", "total"},
			{"amount", "importe"},
			{"confirm", "confirmar"},
			{"create", "crear"},
		},
	},
	"es|en": {
		phrases: []rule{
			{"orden de venta", "sales order"},
			{"orden de compra", "purchase order"},
		},
		words: []rule{
			{"pedido", "order"},
			{"pedidos", "orders"},
			{"factura", "invoice"},
			{"facturas", "invoices"},
			{"cliente", "customer"},
			{"clientes", "customers"},
			{"confirmar", "confirm"},
			{"crear", "create"},
		},
	},
}

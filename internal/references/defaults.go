package references

// Default returns the built-in rules.
func Default() Rules {
	return Rules{
		Categories: []string{
			"Amenities", "Bank", "Bread", "Clothes", "Food", "Gift", "Health",
			"Loan", "Pleasure", "Rent", "Taxes", "Unknown", "Work",
		},
		Subjects: []Subject{
			{Name: "123 Fleurs", Category: "Pleasure", Label: "Flowers", Match: []string{"123FLEURS", "123 FLEURS"}},
			{Name: "Account fees", Category: "Bank", Label: "Account fees", Match: []string{"COTISATION", "FRAIS "}},
			{Name: "Air France", Category: "Pleasure", Match: []string{"AIR FRANCE"}},
			{Name: "Amazon", Category: "Pleasure", Match: []string{"AMAZON"}},
			{Name: "Aroma Zone", Category: "Health", Match: []string{"AROMA-ZONE", "AROMA ZONE"}},
			{Name: "ATM", Category: "Food", Label: "ATM Withdrawal", Match: []string{"RETRAIT DAB"}},
			{Name: "Butchery", Category: "Food", Label: "Meat", Match: []string{"BOUCHERIE"}},
			{Name: "CDiscount", Category: "Pleasure", Match: []string{"CDISCOUNT"}},
			{Name: "Celio", Category: "Clothes", Match: []string{"CELIO"}},
			{Name: "Decathlon", Category: "Pleasure", Match: []string{" DECATHLON "}},
			{Name: "Deliveroo", Category: "Food", Match: []string{"DELIVEROO"}},
			{Name: "EDF", Category: "Amenities", Label: "Electricity - ", Match: []string{"PRELEVEMENT DE EDF"}},
			{Name: "GreenWeez", Category: "Bread", Label: "Flour", Match: []string{"GREENWEEZ"}},
			{Name: "Herbier de Provence", Category: "Food", Label: "Tea", Match: []string{"HERBIER DE PROVENCE"}},
			{Name: "Leetchi", Category: "Pleasure", Match: []string{"LEETCHI"}},
			{Name: "Les Primeurs", Category: "Food", Label: "Fruits & Vegetables", Match: []string{" LES PRIMEURS "}},
			{Name: "Loan Insurance", Category: "Loan", Label: "Loan insurance - ", Match: []string{"ASSURANCE PRET"}},
			{Name: "MAAF", Category: "Amenities", Label: "House insurance", Match: []string{"MAAF"}},
			{Name: "Monoprix", Category: "Food", Label: "Processed food", Match: []string{"MONOPRIX"}},
			{Name: "Online", Category: "Work", Label: "Servers - ", Match: []string{"ONLINE SAS"}},
			{Name: "RATP", Category: "Work", Label: "Pass Navigo - ", Match: []string{"RATP", "NAVIGO"}},
			{Name: "SFR", Category: "Amenities", Label: "Internet - ", Match: []string{"SFR"}},
			{Name: "SNCF", Category: "Pleasure", Match: []string{"SNCF"}},
			{Name: "Taxes", Category: "Taxes", Label: "Taxes - ", Match: []string{"DGFIP", "IMPOTS"}},
			{Name: "Truffaut", Category: "Pleasure", Match: []string{"TRUFFAUT"}},
			{Name: "Self", Category: "Bank"},
		},
	}
}

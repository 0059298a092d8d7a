package province

// DefaultTable returns the built-in tables: the 34 provinces present in the
// boundary dataset, the four Papua provinces created by the 2022 split that
// the boundary dataset predates, and the island regions of all 38.
func DefaultTable() Table {
	mapping := map[string]string{
		// Sumatera
		"ACEH":                 "DI.ACEH",
		"SUMATERA UTARA":       "SUMATERAUTARA",
		"SUMATERA BARAT":       "SUMATERABARAT",
		"RIAU":                 "RIAU",
		"JAMBI":                "JAMBI",
		"SUMATERA SELATAN":     "SUMATERASELATAN",
		"BENGKULU":             "BENGKULU",
		"LAMPUNG":              "LAMPUNG",
		"KEP. BANGKA BELITUNG": "BANGKABELITUNG",
		"KEP. RIAU":            "KEPULAUANRIAU",

		// Jawa
		"DKI JAKARTA":   "DKIJAKARTA",
		"JAWA BARAT":    "JAWABARAT",
		"JAWA TENGAH":   "JAWATENGAH",
		"DI YOGYAKARTA": "DAERAHISTIMEWAYOGYAKARTA",
		"JAWA TIMUR":    "JAWATIMUR",
		"BANTEN":        "BANTEN",

		// Bali & Nusa Tenggara
		"BALI":                "BALI",
		"NUSA TENGGARA BARAT": "NUSATENGGARABARAT",
		"NUSA TENGGARA TIMUR": "NUSATENGGARATIMUR",

		// Kalimantan
		"KALIMANTAN BARAT":   "KALIMANTANBARAT",
		"KALIMANTAN TENGAH":  "KALIMANTANTENGAH",
		"KALIMANTAN SELATAN": "KALIMANTANSELATAN",
		"KALIMANTAN TIMUR":   "KALIMANTANTIMUR",
		"KALIMANTAN UTARA":   "KALIMANTANUTARA",

		// Sulawesi
		"SULAWESI UTARA":    "SULAWESIUTARA",
		"SULAWESI TENGAH":   "SULAWESITENGAH",
		"SULAWESI SELATAN":  "SULAWESISELATAN",
		"SULAWESI TENGGARA": "SULAWESITENGGARA",
		"GORONTALO":         "GORONTALO",
		"SULAWESI BARAT":    "SULAWESIBARAT",

		// Maluku
		"MALUKU":       "MALUKU",
		"MALUKU UTARA": "MALUKUUTARA",

		// Papua
		"PAPUA BARAT": "PAPUABARAT",
		"PAPUA":       "PAPUA",
	}

	return Table{
		Mapping:         mapping,
		Pending:         []string{"PAPUA BARAT DAYA", "PAPUA SELATAN", "PAPUA TENGAH", "PAPUA PEGUNUNGAN"},
		Regions:         defaultRegions(),
		AggregateMarker: "INDONESIA",
	}
}

func defaultRegions() []RegionGroup {
	return []RegionGroup{
		{Name: "Sumatera", Provinces: []string{"ACEH", "SUMATERA UTARA", "SUMATERA BARAT", "RIAU", "JAMBI", "SUMATERA SELATAN", "BENGKULU", "LAMPUNG", "KEP. BANGKA BELITUNG", "KEP. RIAU"}},
		{Name: "Jawa", Provinces: []string{"DKI JAKARTA", "JAWA BARAT", "JAWA TENGAH", "DI YOGYAKARTA", "JAWA TIMUR", "BANTEN"}},
		{Name: "Bali & Nusa Tenggara", Provinces: []string{"BALI", "NUSA TENGGARA BARAT", "NUSA TENGGARA TIMUR"}},
		{Name: "Kalimantan", Provinces: []string{"KALIMANTAN BARAT", "KALIMANTAN TENGAH", "KALIMANTAN SELATAN", "KALIMANTAN TIMUR", "KALIMANTAN UTARA"}},
		{Name: "Sulawesi", Provinces: []string{"SULAWESI UTARA", "SULAWESI TENGAH", "SULAWESI SELATAN", "SULAWESI TENGGARA", "GORONTALO", "SULAWESI BARAT"}},
		{Name: "Maluku", Provinces: []string{"MALUKU", "MALUKU UTARA"}},
		{Name: "Papua", Provinces: []string{"PAPUA", "PAPUA BARAT", "PAPUA BARAT DAYA", "PAPUA SELATAN", "PAPUA TENGAH", "PAPUA PEGUNUNGAN"}},
	}
}

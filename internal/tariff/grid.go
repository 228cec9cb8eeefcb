package tariff

import (
	"sort"
	"strings"
)

// moto builds the per-tier charges from the three moto rates, in bons. The
// light-vehicle tiers follow the standard grid ratio: VL Standard is twice
// the moto Standard charge, VL Express three times.
func moto(normal, express, urgence int64) Rates {
	return Rates{
		Normal:    normal * MilliBons,
		Express:   express * MilliBons,
		Urgence:   urgence * MilliBons,
		VLNormal:  normal * 2 * MilliBons,
		VLExpress: normal * 3 * MilliBons,
	}
}

// builtinGrid is the embedded Île-de-France pricing grid, used when the
// tariff database has no row for a city (or no database is configured).
// Charges are pickup charges in bons; coordinates feed the distance
// fallback.
var builtinGrid = []CityRate{
	{City: "PARIS", Zip: "75000", Lat: 48.8566, Lng: 2.3522, Rates: moto(2, 4, 7)},
	{City: "ALFORTVILLE", Zip: "94140", Lat: 48.8050, Lng: 2.4239, Rates: moto(6, 10, 14)},
	{City: "ANTONY", Zip: "92160", Lat: 48.7537, Lng: 2.2970, Rates: moto(8, 12, 16)},
	{City: "ARCUEIL", Zip: "94110", Lat: 48.8075, Lng: 2.3361, Rates: moto(4, 7, 10)},
	{City: "ARGENTEUIL", Zip: "95100", Lat: 48.9472, Lng: 2.2467, Rates: moto(8, 12, 16)},
	{City: "ASNIERES-SUR-SEINE", Zip: "92600", Lat: 48.9142, Lng: 2.2874, Rates: moto(4, 7, 10)},
	{City: "ATHIS-MONS", Zip: "91200", Lat: 48.7089, Lng: 2.3933, Rates: moto(12, 17, 22)},
	{City: "AUBERVILLIERS", Zip: "93300", Lat: 48.9146, Lng: 2.3838, Rates: moto(4, 7, 10)},
	{City: "AULNAY-SOUS-BOIS", Zip: "93600", Lat: 48.9344, Lng: 2.4944, Rates: moto(12, 17, 22)},
	{City: "BAGNEUX", Zip: "92220", Lat: 48.7983, Lng: 2.3092, Rates: moto(4, 7, 10)},
	{City: "BAGNOLET", Zip: "93170", Lat: 48.8692, Lng: 2.4181, Rates: moto(4, 7, 10)},
	{City: "BOBIGNY", Zip: "93000", Lat: 48.9106, Lng: 2.4397, Rates: moto(6, 10, 14)},
	{City: "BOIS-COLOMBES", Zip: "92270", Lat: 48.9153, Lng: 2.2681, Rates: moto(4, 7, 10)},
	{City: "BONDY", Zip: "93140", Lat: 48.9022, Lng: 2.4828, Rates: moto(8, 12, 16)},
	{City: "BOULOGNE-BILLANCOURT", Zip: "92100", Lat: 48.8352, Lng: 2.2409, Rates: moto(3, 6, 9)},
	{City: "BOURG-LA-REINE", Zip: "92340", Lat: 48.7797, Lng: 2.3158, Rates: moto(8, 12, 16)},
	{City: "BRIE-COMTE-ROBERT", Zip: "77170", Lat: 48.6922, Lng: 2.6108, Rates: moto(20, 25, 30)},
	{City: "BUSSY-SAINT-GEORGES", Zip: "77600", Lat: 48.8422, Lng: 2.6983, Rates: moto(14, 19, 24)},
	{City: "CACHAN", Zip: "94230", Lat: 48.7917, Lng: 2.3319, Rates: moto(4, 7, 10)},
	{City: "CERGY", Zip: "95800", Lat: 49.0361, Lng: 2.0631, Rates: moto(15, 20, 25)},
	{City: "CHAMPIGNY-SUR-MARNE", Zip: "94500", Lat: 48.8172, Lng: 2.5156, Rates: moto(8, 12, 16)},
	{City: "CHAMPS-SUR-MARNE", Zip: "77420", Lat: 48.8528, Lng: 2.6028, Rates: moto(14, 19, 24)},
	{City: "CHARENTON-LE-PONT", Zip: "94220", Lat: 48.8219, Lng: 2.4122, Rates: moto(4, 7, 10)},
	{City: "CHATENAY-MALABRY", Zip: "92290", Lat: 48.7653, Lng: 2.2781, Rates: moto(8, 12, 16)},
	{City: "CHATILLON", Zip: "92320", Lat: 48.8036, Lng: 2.2881, Rates: moto(4, 7, 10)},
	{City: "CHATOU", Zip: "78400", Lat: 48.8897, Lng: 2.1575, Rates: moto(8, 12, 16)},
	{City: "CHAVILLE", Zip: "92370", Lat: 48.8086, Lng: 2.1886, Rates: moto(7, 11, 15)},
	{City: "CHELLES", Zip: "77500", Lat: 48.8808, Lng: 2.5911, Rates: moto(14, 19, 24)},
	{City: "CHEVILLY-LARUE", Zip: "94550", Lat: 48.7647, Lng: 2.3528, Rates: moto(8, 12, 16)},
	{City: "CHOISY-LE-ROI", Zip: "94600", Lat: 48.7631, Lng: 2.4089, Rates: moto(8, 12, 16)},
	{City: "CLAMART", Zip: "92140", Lat: 48.8014, Lng: 2.2628, Rates: moto(4, 7, 10)},
	{City: "CLICHY", Zip: "92110", Lat: 48.9044, Lng: 2.3064, Rates: moto(3, 6, 9)},
	{City: "COLOMBES", Zip: "92700", Lat: 48.9236, Lng: 2.2542, Rates: moto(4, 7, 10)},
	{City: "COURBEVOIE", Zip: "92400", Lat: 48.8978, Lng: 2.2531, Rates: moto(3, 6, 9)},
	{City: "CRETEIL", Zip: "94000", Lat: 48.7903, Lng: 2.4556, Rates: moto(7, 10, 13)},
	{City: "DRANCY", Zip: "93700", Lat: 48.9244, Lng: 2.4453, Rates: moto(6, 10, 14)},
	{City: "EVRY-COURCOURONNES", Zip: "91000", Lat: 48.6297, Lng: 2.4417, Rates: moto(15, 20, 25)},
	{City: "FONTENAY-SOUS-BOIS", Zip: "94120", Lat: 48.8517, Lng: 2.4772, Rates: moto(7, 10, 13)},
	{City: "GENTILLY", Zip: "94250", Lat: 48.8133, Lng: 2.3442, Rates: moto(4, 7, 10)},
	{City: "ISSY-LES-MOULINEAUX", Zip: "92130", Lat: 48.8247, Lng: 2.2700, Rates: moto(4, 6, 8)},
	{City: "IVRY-SUR-SEINE", Zip: "94200", Lat: 48.8128, Lng: 2.3872, Rates: moto(4, 7, 10)},
	{City: "JOINVILLE-LE-PONT", Zip: "94340", Lat: 48.8214, Lng: 2.4658, Rates: moto(8, 11, 14)},
	{City: "L-HAY-LES-ROSES", Zip: "94240", Lat: 48.7781, Lng: 2.3375, Rates: moto(5, 8, 11)},
	{City: "LA-COURNEUVE", Zip: "93120", Lat: 48.9258, Lng: 2.3983, Rates: moto(5, 8, 11)},
	{City: "LA-DEFENSE", Zip: "92800", Lat: 48.8917, Lng: 2.2394, Rates: moto(3, 6, 9)},
	{City: "LAGNY-SUR-MARNE", Zip: "77400", Lat: 48.8736, Lng: 2.7108, Rates: moto(12, 15, 18)},
	{City: "LE-BLANC-MESNIL", Zip: "93150", Lat: 48.9386, Lng: 2.4622, Rates: moto(8, 12, 16)},
	{City: "LE-BOURGET", Zip: "93350", Lat: 48.9344, Lng: 2.4253, Rates: moto(8, 12, 16)},
	{City: "LE-KREMLIN-BICETRE", Zip: "94270", Lat: 48.8100, Lng: 2.3617, Rates: moto(4, 7, 10)},
	{City: "LE-RAINCY", Zip: "93340", Lat: 48.8964, Lng: 2.5200, Rates: moto(12, 17, 22)},
	{City: "LES-ULIS", Zip: "91940", Lat: 48.6811, Lng: 2.1694, Rates: moto(15, 20, 25)},
	{City: "LEVALLOIS-PERRET", Zip: "92300", Lat: 48.8931, Lng: 2.2878, Rates: moto(2, 4, 6)},
	{City: "MAISONS-ALFORT", Zip: "94700", Lat: 48.8058, Lng: 2.4378, Rates: moto(5, 8, 11)},
	{City: "MALAKOFF", Zip: "92240", Lat: 48.8169, Lng: 2.2997, Rates: moto(3, 6, 9)},
	{City: "MASSY", Zip: "91300", Lat: 48.7264, Lng: 2.2819, Rates: moto(8, 11, 14)},
	{City: "MEAUX", Zip: "77100", Lat: 48.9603, Lng: 2.8783, Rates: moto(20, 23, 26)},
	{City: "MELUN", Zip: "77000", Lat: 48.5392, Lng: 2.6608, Rates: moto(24, 27, 30)},
	{City: "MEUDON", Zip: "92190", Lat: 48.8136, Lng: 2.2350, Rates: moto(5, 7, 9)},
	{City: "MONTREUIL", Zip: "93100", Lat: 48.8639, Lng: 2.4483, Rates: moto(4, 7, 11)},
	{City: "MONTROUGE", Zip: "92120", Lat: 48.8161, Lng: 2.3114, Rates: moto(3, 6, 9)},
	{City: "NANTERRE", Zip: "92000", Lat: 48.8925, Lng: 2.2069, Rates: moto(5, 8, 11)},
	{City: "NEUILLY-SUR-SEINE", Zip: "92200", Lat: 48.8881, Lng: 2.2686, Rates: moto(2, 4, 6)},
	{City: "NOGENT-SUR-MARNE", Zip: "94130", Lat: 48.8369, Lng: 2.4828, Rates: moto(8, 11, 14)},
	{City: "NOISY-LE-GRAND", Zip: "93160", Lat: 48.8481, Lng: 2.5528, Rates: moto(10, 13, 16)},
	{City: "ORLY", Zip: "94310", Lat: 48.7431, Lng: 2.3925, Rates: moto(7, 10, 13)},
	{City: "PANTIN", Zip: "93500", Lat: 48.8944, Lng: 2.4017, Rates: moto(4, 7, 10)},
	{City: "POISSY", Zip: "78300", Lat: 48.9294, Lng: 2.0456, Rates: moto(10, 13, 16)},
	{City: "PONTOISE", Zip: "95300", Lat: 49.0508, Lng: 2.1008, Rates: moto(15, 18, 21)},
	{City: "PUTEAUX", Zip: "92800", Lat: 48.8847, Lng: 2.2389, Rates: moto(3, 6, 9)},
	{City: "ROISSY-EN-FRANCE", Zip: "95700", Lat: 49.0044, Lng: 2.5172, Rates: moto(14, 19, 24)},
	{City: "RUEIL-MALMAISON", Zip: "92500", Lat: 48.8772, Lng: 2.1808, Rates: moto(4, 7, 10)},
	{City: "RUNGIS", Zip: "94150", Lat: 48.7494, Lng: 2.3522, Rates: moto(8, 12, 16)},
	{City: "SAINT-CLOUD", Zip: "92210", Lat: 48.8464, Lng: 2.2189, Rates: moto(4, 7, 10)},
	{City: "SAINT-DENIS", Zip: "93200", Lat: 48.9358, Lng: 2.3539, Rates: moto(6, 10, 14)},
	{City: "SAINT-GERMAIN-EN-LAYE", Zip: "78100", Lat: 48.8989, Lng: 2.0936, Rates: moto(10, 15, 20)},
	{City: "SAINT-MANDE", Zip: "94160", Lat: 48.8422, Lng: 2.4186, Rates: moto(4, 7, 10)},
	{City: "SAINT-MAUR-DES-FOSSES", Zip: "94210", Lat: 48.7994, Lng: 2.4939, Rates: moto(8, 12, 16)},
	{City: "SAINT-OUEN-SUR-SEINE", Zip: "93400", Lat: 48.9047, Lng: 2.3342, Rates: moto(4, 7, 10)},
	{City: "SARCELLES", Zip: "95200", Lat: 48.9758, Lng: 2.3781, Rates: moto(10, 15, 20)},
	{City: "SARTROUVILLE", Zip: "78500", Lat: 48.9372, Lng: 2.1644, Rates: moto(8, 12, 16)},
	{City: "SCEAUX", Zip: "92330", Lat: 48.7786, Lng: 2.2900, Rates: moto(8, 12, 16)},
	{City: "SEVRES", Zip: "92310", Lat: 48.8228, Lng: 2.2081, Rates: moto(4, 7, 10)},
	{City: "STAINS", Zip: "93240", Lat: 48.9547, Lng: 2.3828, Rates: moto(8, 12, 16)},
	{City: "SURESNES", Zip: "92150", Lat: 48.8700, Lng: 2.2269, Rates: moto(3, 6, 9)},
	{City: "THIAIS", Zip: "94320", Lat: 48.7650, Lng: 2.3922, Rates: moto(8, 12, 16)},
	{City: "TORCY", Zip: "77200", Lat: 48.8503, Lng: 2.6536, Rates: moto(14, 19, 24)},
	{City: "TRAPPES", Zip: "78190", Lat: 48.7764, Lng: 2.0083, Rates: moto(14, 19, 24)},
	{City: "TREMBLAY-EN-FRANCE", Zip: "93290", Lat: 48.9494, Lng: 2.5617, Rates: moto(14, 19, 24)},
	{City: "VANVES", Zip: "92170", Lat: 48.8208, Lng: 2.2897, Rates: moto(3, 6, 9)},
	{City: "VELIZY-VILLACOUBLAY", Zip: "78140", Lat: 48.7833, Lng: 2.1917, Rates: moto(8, 12, 16)},
	{City: "VERSAILLES", Zip: "78000", Lat: 48.8014, Lng: 2.1301, Rates: moto(8, 12, 16)},
	{City: "VILLEJUIF", Zip: "94800", Lat: 48.7919, Lng: 2.3636, Rates: moto(6, 10, 14)},
	{City: "VILLEPINTE", Zip: "93420", Lat: 48.9617, Lng: 2.5361, Rates: moto(14, 19, 24)},
	{City: "VINCENNES", Zip: "94300", Lat: 48.8475, Lng: 2.4378, Rates: moto(4, 7, 10)},
	{City: "VITRY-SUR-SEINE", Zip: "94400", Lat: 48.7872, Lng: 2.3928, Rates: moto(6, 10, 14)},
}

// Grid returns a copy of the embedded pricing grid, for seeding a database.
func Grid() []CityRate {
	out := make([]CityRate, len(builtinGrid))
	copy(out, builtinGrid)
	return out
}

// LookupGrid finds a city in the embedded grid. Lookup is exact on the
// normalised name first, then partial in both directions so "Paris 15e"
// resolves to PARIS and "Saint Denis" to SAINT-DENIS.
func LookupGrid(city string) (CityRate, bool) {
	name := NormalizeCity(city)
	if name == "" {
		return CityRate{}, false
	}
	for _, row := range builtinGrid {
		if row.City == name {
			return row, true
		}
	}
	for _, row := range builtinGrid {
		if strings.Contains(name, row.City) || strings.Contains(row.City, name) {
			return row, true
		}
	}
	return CityRate{}, false
}

// SearchGrid returns up to limit grid rows whose name or zip starts with the
// query, ordered by city name. Used for address autocompletion.
func SearchGrid(query string, limit int) []CityRate {
	q := NormalizeCity(query)
	if q == "" || limit <= 0 {
		return nil
	}
	var out []CityRate
	for _, row := range builtinGrid {
		if strings.HasPrefix(row.City, q) || strings.HasPrefix(row.Zip, strings.TrimSpace(query)) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

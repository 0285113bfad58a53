package news

// GeneralSector is the catch-all for articles that fit no market sector,
// and the sector the classifier falls back to on any failure.
const GeneralSector = "General"

// Sectors is the fixed set of market sectors. It never grows at runtime;
// every derived structure carries exactly these keys.
var Sectors = []string{
	"Technology & Software",
	"Finance & Economy",
	"Healthcare & Biotech",
	"Energy & Materials",
	"Defense & Warfare",
	"Geopolitics & Trade",
	"Cryptocurrency & Blockchain",
	"Artificial Intelligence & Robotics",
	"Retail & Consumer Goods",
	"Automotive & Mobility",
	"Real Estate & Infrastructure",
	"Politics & Government",
	GeneralSector,
}

var sectorSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(Sectors))
	for _, name := range Sectors {
		s[name] = struct{}{}
	}
	return s
}()

// ValidSector reports whether name is a member of the fixed sector set.
func ValidSector(name string) bool {
	_, ok := sectorSet[name]
	return ok
}

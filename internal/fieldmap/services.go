package fieldmap

import "strings"

var serviceDescriptions = map[string]string{
	"AEP":    "Adult Education Program",
	"AFP":    "PS Adults and Families Program",
	"CEP":    "Children's Education Program",
	"DA":     "PS Direct Assistance Program",
	"DIER":   "PS Drop in and Emergency Response",
	"EACB":   "Education Access and Capacity Building",
	"GROUPS": "PS Groups and Activities",
	"MAN":    "Management",
	"MED":    "PS Medical Access Program",
	"MONT":   "Montessori Preschool",
	"NONCLN": "Non Client Time",
	"OUT":    "Community Outreach",
	"PDC":    "Professional Development Courses",
	"PRO":    "RLAP Protection",
	"RSD":    "RLAP RSD",
	"RST":    "RLAP Resettlement",
	"UCY":    "PS Unaccompanied Children and Youth Program",
	"UYBP":   "PS Unaccompanied Youth Bridging Program",
}

// ServiceDescription returns the services table description of code.
func ServiceDescription(code string) (string, bool) {
	d, ok := serviceDescriptions[strings.ToUpper(strings.TrimSpace(code))]
	return d, ok
}

package timeline

// Treatment is the icon and colour a display event is drawn with.
type Treatment struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// DefaultTreatment is used for any key a palette lacks.
var DefaultTreatment = Treatment{Icon: "info", Color: "grey"}

// Palette maps category keys to treatments.
type Palette map[string]Treatment

func DefaultPalette() Palette {
	return Palette{
		string(CategoryAssessmentCreated): {Icon: "assignment", Color: "primary"},
		string(CategoryInterestApplied):   {Icon: "trending_up", Color: "warning"},
		string(CategoryPenaltyApplied):    {Icon: "gavel", Color: "error"},
		string(CategoryPaymentReceived):   {Icon: "payments", Color: "success"},
		string(CategoryStatusChanged):     {Icon: "sync_alt", Color: "info"},
		string(CategoryOther):             DefaultTreatment,
	}
}

// Resolve returns the treatment for key, or DefaultTreatment. A nil palette is valid.
func (p Palette) Resolve(key string) Treatment {
	if t, ok := p[key]; ok && t.Icon != "" {
		return t
	}
	return DefaultTreatment
}

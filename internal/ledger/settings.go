package ledger

import "fmt"

// SettingName identifies a per-code chart setting.
type SettingName string

const (
	SettingCategory       SettingName = "CATEGORY"
	SettingClassification SettingName = "CLASSIFICATION"
)

// Classification overrides the current/non-current range rule.
type Classification string

const (
	ClassCurrent    Classification = "CURRENT"
	ClassNonCurrent Classification = "NON_CURRENT"
)

// CoASetting is a single setting row for an account code.
type CoASetting struct {
	Code    string      `json:"code"`
	Setting SettingName `json:"setting"`
	Value   string      `json:"value"`
}

// Validate checks the setting name and value.
func (s CoASetting) Validate() error {
	if _, err := CategoryForCode(s.Code); err != nil {
		return err
	}
	var cs CodeSettings
	return cs.apply(s)
}

// CodeSettings holds the resolved settings for an account code.
type CodeSettings struct {
	Code           string         `json:"code"`
	Category       Category       `json:"category,omitempty"`
	Classification Classification `json:"classification,omitempty"`
}

func (cs *CodeSettings) apply(s CoASetting) error {
	switch s.Setting {
	case SettingCategory:
		cat, err := ParseCategory(s.Value)
		if err != nil {
			return err
		}
		cs.Category = cat
	case SettingClassification:
		switch Classification(s.Value) {
		case ClassCurrent, ClassNonCurrent:
			cs.Classification = Classification(s.Value)
		default:
			return fmt.Errorf("%w: CLASSIFICATION must be CURRENT or NON_CURRENT, got %q", ErrInvalidSetting, s.Value)
		}
	default:
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidSetting, s.Setting)
	}
	return nil
}

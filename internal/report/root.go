package report

import (
	"fmt"
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// parseRoot applies the pairs preceding the first department section to
// the water right itself.
func parseRoot(pairs []KeyValuePair, waterRight *waterright.WaterRight) error {
	for _, pair := range pairs {
		value := valueAt(pair.Values, 0)

		switch pair.Key {
		case "Wasserbuchbehörde":
			waterRight.WaterAuthority = value

		case "Kennziffer":
			if value == nil {
				return rootEntryError(pair.Key, value)
			}
			status, externalIdentifier, err := splitIdentifier(*value)
			if err != nil {
				return err
			}
			waterRight.Status = status
			waterRight.ExternalIdentifier = externalIdentifier

		case "erteilt durch /", "abweichend", "und betrifft Rechtsabteilungen":
			// fragments of the multi line header, they carry no values

		case "eingetragen durch:":
			waterRight.RegisteringAuthority = value

		case "erteilt durch:":
			waterRight.GrantingAuthority = value

		case "erteilt am:":
			waterRight.ValidFrom = value

		// TODO: remove the misspelled variant when the reports have their
		// typo fixed
		case "erstmalig erteilt am:", "erstmalig ertellt am:":
			waterRight.InitiallyGranted = value

		case "Aktenzeichen:":
			waterRight.FileReference = value

		case "Das Recht ist befristet bis":
			waterRight.ValidUntil = value

		case "Betreff:":
			waterRight.Subject = value

		default:
			return rootEntryError(pair.Key, value)
		}
	}

	return nil
}

// splitIdentifier splits a "Kennziffer" value into the parenthesized
// status at its end and the external identifier preceding it.
func splitIdentifier(value string) (status, externalIdentifier *string, err error) {
	state := value
	if idx := strings.LastIndex(value, " "); idx >= 0 {
		state = value[idx+1:]
		identifier := value[:idx]
		externalIdentifier = &identifier
	}
	if len(state) < 2 {
		return nil, nil, fmt.Errorf("malformed status %q in identifier %q", state, value)
	}
	stripped := state[1 : len(state)-1]
	return &stripped, externalIdentifier, nil
}

func rootEntryError(key string, value *string) error {
	return fmt.Errorf("invalid entry for the root, key: %q, value: %s", key, optionalDebug(value))
}

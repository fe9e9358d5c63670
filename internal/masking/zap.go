// Package masking implements the statistical outlier detection engines:
// profile masking based on Tukey's rule over per-profile features, and
// time-phase spike finding with replacement-value synthesis.
package masking

import (
	"fmt"
	"sort"
)

// ConfigurationError reports an invocation that cannot produce statistics,
// e.g. a zap list covering every channel.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// resolveZapChannels turns a user-supplied list of channel indices into a
// sorted, de-duplicated, in-range exclusion set and a boolean exclusion
// mask of length numChans. Out-of-range indices are silently dropped: zap
// lists are human-curated and may come from a different array
// configuration. An exclusion set covering all channels is an error since
// no population would remain to compute statistics from.
func resolveZapChannels(requested []int, numChans int) ([]int, []bool, error) {
	zapMask := make([]bool, numChans)
	for _, ichan := range requested {
		if ichan >= 0 && ichan < numChans {
			zapMask[ichan] = true
		}
	}

	zap := make([]int, 0, len(requested))
	for ichan, zapped := range zapMask {
		if zapped {
			zap = append(zap, ichan)
		}
	}
	sort.Ints(zap)

	if len(zap) == numChans {
		return nil, nil, &ConfigurationError{
			Msg: fmt.Sprintf(
				"cannot compute statistics with all %d channels zapped",
				numChans),
		}
	}
	return zap, zapMask, nil
}

package tiffio

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

const stretchNeedle = "Stretched to Integer type"

// RescalingFactor recovers the intensity stretch a deconvolution package
// recorded for an image. Huygens writes a sibling <name>_history.txt whose
// "Stretched to Integer type" line ends with the factor the intensities
// were multiplied by. found reports whether such a line existed; without
// one the image was not stretched and the factor is 1.
func RescalingFactor(imagePath string) (factor float64, found bool, err error) {
	base := strings.TrimSuffix(imagePath, filepath.Ext(imagePath))

	f, err := os.Open(base + "_history.txt")
	if errors.Is(err, os.ErrNotExist) {
		return 1, false, nil
	} else if err != nil {
		return 0, false, pfx.Err(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, stretchNeedle) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		factor, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return 0, false, pfx.Err(fmt.Errorf("%s_history.txt: bad rescaling factor %q: %w", base, fields[len(fields)-1], err))
		}

		return factor, true, nil
	}

	if err := scanner.Err(); err != nil {
		return 0, false, pfx.Err(err)
	}

	return 1, false, nil
}

package generate

import (
	"fmt"
	"strconv"
)

// identityDirective returns the synthesis directive prefixed to the prompt
// when reference images are attached. With multiple references the model
// tends to blend faces unless each identity is called out as distinct.
func identityDirective(refCount int) string {
	switch {
	case refCount <= 0:
		return ""
	case refCount == 1:
		return "Use the attached reference image as the subject. Preserve the exact identity, face, and distinguishing features of the person in the reference image. "
	default:
		n := countWord(refCount)
		return fmt.Sprintf("The %s attached reference images show %s different people. Preserve all %s identities as distinct individuals and do not blend or merge their features. ", n, n, n)
	}
}

func countWord(n int) string {
	switch n {
	case 2:
		return "two"
	case 3:
		return "three"
	default:
		return strconv.Itoa(n)
	}
}

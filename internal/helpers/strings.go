package helpers

func StringArrayContains(a []string, text string) bool {
	for _, x := range a {
		if x == text {
			return true
		}
	}
	return false
}

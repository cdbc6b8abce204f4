package version

var (
	// These values are injected during build - DO NOT MODIFY
	Version   = "VERSION_PLACEHOLDER"
	CommitSHA = "COMMIT_PLACEHOLDER"
)

func GetVersionInfo() string {
	return "AnnotAnki " + Version
}

func GetDetailedVersionInfo() string {
	return "AnnotAnki\n" +
		"Version:  " + Version + "\n" +
		"Commit:   " + CommitSHA + "\n"
}

// UserAgent is sent on outgoing HTTP requests.
func UserAgent() string {
	return "annotanki/" + Version
}

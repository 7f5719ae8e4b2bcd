package testrun

// SetNotes returns an UpdateSetter that sets the test run's notes.
func SetNotes(notes string) UpdateSetter {
	return func(tr *TestRun) error {
		tr.Notes = notes
		return nil
	}
}

// SetExitCode returns an UpdateSetter that records the runner's exit code.
func SetExitCode(code int) UpdateSetter {
	return func(tr *TestRun) error {
		tr.ExitCode = &code
		return nil
	}
}

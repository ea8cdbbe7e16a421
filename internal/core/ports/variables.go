package ports

// VariableSink defines the interface for reporting pipeline variables back to
// the calling build system.
//
//go:generate mockgen -source=variables.go -destination=mocks/mock_variables.go -package=mocks
type VariableSink interface {
	// Set publishes a variable for consumption by later pipeline steps.
	Set(name, value string) error
}

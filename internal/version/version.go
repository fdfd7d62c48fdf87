package version

// Set at build time with -ldflags "-X github.com/bnema/ctix/internal/version.Version=...".
var (
	Version = "dev"

	// DefaultContractAddress is used when no deployment is registered for the
	// wallet's chain.
	DefaultContractAddress = ""
)

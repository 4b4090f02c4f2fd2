package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"

	"saskit/internal/sasenv"
	"saskit/internal/schema"
)

// RegisterBuiltins installs the in-process tasks bundled with the
// toolkit: currently sasver, which reports release and environment
// information.
func RegisterBuiltins(schemas *schema.Reader, registry *Registry, version string) {
	d := schema.NewDescriptor("sasver", schema.InProcess)
	d.Version = version
	schemas.Register(d)
	registry.Register("sasver", func(ctx context.Context, params map[string]string, stdout io.Writer) error {
		return sasver(ctx, version, stdout)
	})
}

// sasver mirrors the native sasversion report, extended with the
// toolkit's own version and the SAS-related variables currently set.
func sasver(ctx context.Context, version string, w io.Writer) error {
	fmt.Fprintln(w, "XMM-Newton SAS - release and build information")
	fmt.Fprintln(w)
	if info, err := sasenv.Release(ctx); err == nil {
		fmt.Fprintf(w, "SAS release  : %s\n", info.Release)
		fmt.Fprintf(w, "SAS AKA      : %s\n", info.AKA)
		if info.CommitID != "" {
			fmt.Fprintf(w, "SAS commit ID: %s\n", info.CommitID)
		}
		fmt.Fprintf(w, "Compiled on  : %s\n", info.CompiledOn)
		fmt.Fprintf(w, "Compiled by  : %s@%s\n", info.CompiledBy, info.CompiledHost)
		fmt.Fprintf(w, "Platform     : %s\n", info.Platform)
	}
	fmt.Fprintf(w, "saskit version: %s\n", version)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SAS-related environment variables set:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s = %s\n", "SAS_DIR", os.Getenv("SAS_DIR"))
	fmt.Fprintf(w, "%-14s = %s\n", "SAS_PATH", os.Getenv("SAS_PATH"))
	for _, name := range []string{"SAS_CCFPATH", "SAS_CCF", "SAS_ODF", "SAS_VERBOSITY"} {
		if v, ok := os.LookupEnv(name); ok {
			fmt.Fprintf(w, "%-14s = %s\n", name, v)
		}
	}
	return nil
}

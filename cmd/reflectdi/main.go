// Command reflectdi inspects a reflectdi registration graph: it bootstraps
// the package's own demo application and either prints its compiled
// activation plan or demonstrates scope-local caching.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pegasusheavy/reflectdi/di"
	"github.com/pegasusheavy/reflectdi/internal/demoapp"
)

func main() {
	root := &cobra.Command{
		Use:   "reflectdi",
		Short: "Inspect the demo reflectdi registration graph",
	}
	root.AddCommand(newGraphCmd())
	root.AddCommand(newScopesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the compiled activation plan for UserService",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := di.NewRegistry()
			if err := demoapp.Register(reg); err != nil {
				return err
			}
			provider := reg.BuildProvider()

			tree, err := provider.Describe(di.ConcreteOf[demoapp.UserService]())
			if err != nil {
				return err
			}
			fmt.Print(tree)
			return nil
		},
	}
}

func newScopesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "Resolve a Scoped RequestContext across two independent scopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := di.NewRegistry()
			if err := demoapp.Register(reg); err != nil {
				return err
			}
			provider := reg.BuildProvider()

			scope1 := provider.CreateScope()
			defer scope1.Close()
			a, err := di.GetIn[*demoapp.RequestContext](scope1)
			if err != nil {
				return err
			}
			b, err := di.GetIn[*demoapp.RequestContext](scope1)
			if err != nil {
				return err
			}
			fmt.Printf("scope1: a.RequestID=%s b.RequestID=%s same=%v\n", a.RequestID, b.RequestID, a == b)

			scope2 := provider.CreateScope()
			defer scope2.Close()
			c, err := di.GetIn[*demoapp.RequestContext](scope2)
			if err != nil {
				return err
			}
			fmt.Printf("scope2: c.RequestID=%s different-from-scope1=%v\n", c.RequestID, c != a)
			return nil
		},
	}
}

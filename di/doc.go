// Package di is a non-intrusive reflective dependency injection container:
// concrete types are registered once and resolved by constructing their
// full dependency graph automatically via constructor-parameter and
// attribute-field reflection, with no compile-time code generation and no
// requirement that a registered type know anything about the container.
//
// # Features
//
//   - TypeKey identity covering concrete types, interfaces, generic
//     instantiations, string aliases, and Optional/Union dependency sites
//   - Constructor-parameter and di-tagged attribute-field injection
//   - Transient, Singleton, and Scoped lifetimes
//   - Compiled, cached activation plans with cycle detection
//   - A frozen Provider facade safe for concurrent resolution
//
// # Basic usage
//
//	reg := di.NewRegistry()
//	reg.AddSingleton(di.ConcreteOf[Logger](), NewConsoleLogger)
//	reg.AddTransient(di.ConcreteOf[UserService](), NewUserService)
//
//	provider := reg.BuildProvider()
//	svc, err := di.Get[UserService](provider)
//
// # Lifetimes
//
// Transient creates a new instance on every resolve. Singleton creates one
// instance for the Provider's entire lifetime. Scoped creates one instance
// per ActivationScope, for request- or job-scoped dependencies:
//
//	scope := provider.CreateScope()
//	defer scope.Close()
//	repo, err := di.GetIn[Repository](scope)
package di

package di_test

import (
	"fmt"

	"github.com/pegasusheavy/reflectdi/di"
	"github.com/pegasusheavy/reflectdi/internal/demoapp"
)

func Example() {
	reg := di.NewRegistry()
	if err := demoapp.Register(reg); err != nil {
		panic(err)
	}
	provider := reg.BuildProvider()

	service, err := di.Get[demoapp.UserService](provider)
	if err != nil {
		panic(err)
	}

	users, err := service.ListUsers()
	if err != nil {
		panic(err)
	}
	for _, u := range users {
		fmt.Println(u.Name)
	}
	// Output:
	// Ada Lovelace
	// Alan Turing
}

func ExampleProvider_CreateScope() {
	reg := di.NewRegistry()
	if err := demoapp.Register(reg); err != nil {
		panic(err)
	}
	provider := reg.BuildProvider()

	scope := provider.CreateScope()
	defer scope.Close()

	a, err := di.GetIn[*demoapp.RequestContext](scope)
	if err != nil {
		panic(err)
	}
	b, err := di.GetIn[*demoapp.RequestContext](scope)
	if err != nil {
		panic(err)
	}
	fmt.Println(a == b)
	// Output:
	// true
}

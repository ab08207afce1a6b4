package rolegate_test

import (
	"context"
	"fmt"

	"github.com/rolegate/rolegate"
	"github.com/rolegate/rolegate/store/memory"
)

func Example() {
	ctx := context.Background()
	acl := rolegate.New(memory.New())

	if _, err := acl.Permissions().Create(ctx, "Show Users", "can list users"); err != nil {
		panic(err)
	}

	admin, err := acl.Roles().Create(ctx, "admin")
	if err != nil {
		panic(err)
	}

	granted, err := admin.Allow(ctx, "show-users")
	if err != nil {
		panic(err)
	}
	fmt.Println("granted:", granted)

	ok, err := admin.Can(ctx, "Show Users")
	if err != nil {
		panic(err)
	}
	fmt.Println("can show users:", ok)

	// Output:
	// granted: 1
	// can show users: true
}

// Command allocdemo exercises the allocheap engine end to end: it
// allocates, names, resizes, releases, and dumps a small heap.
//
// It is a demonstration harness only; it does not attempt to interpose
// itself as the process's libc allocator the way a real drop-in
// replacement would (traditionally via LD_PRELOAD, e.g.
// "LD_PRELOAD=$(pwd)/allocator.so command"). That interposition
// mechanism is an external collaborator, out of scope for the engine
// itself.
package main

import (
	"fmt"
	"os"

	"github.com/heapkit/allocheap"
)

func main() {
	var a allocheap.Allocator

	widget, err := a.AllocateNamed(48, "widget")
	if err != nil {
		fmt.Fprintln(os.Stderr, "allocate widget:", err)
		os.Exit(1)
	}
	copy(widget, "hello from allocdemo")

	gadget, err := a.Allocate(128)
	if err != nil {
		fmt.Fprintln(os.Stderr, "allocate gadget:", err)
		os.Exit(1)
	}

	fmt.Println("heap after two allocations:")
	if err := a.Dump(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dump:", err)
		os.Exit(1)
	}

	gadget, err = a.Resize(gadget, 4096)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resize gadget:", err)
		os.Exit(1)
	}

	if err := a.Release(widget); err != nil {
		fmt.Fprintln(os.Stderr, "release widget:", err)
		os.Exit(1)
	}
	if err := a.Release(gadget); err != nil {
		fmt.Fprintln(os.Stderr, "release gadget:", err)
		os.Exit(1)
	}

	fmt.Println("heap after releasing everything:")
	if err := a.Dump(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dump:", err)
		os.Exit(1)
	}
}

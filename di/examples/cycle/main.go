package main

import (
	"fmt"

	"github.com/gocrud/beans/di"
)

type Node struct {
	Name string
	Peer *Node
}

func main() {
	types := di.NewTypeRegistry()
	di.MustRegisterType[*Node](types, "Node")

	store := di.NewDefinitionStore(di.NewDocument("go",
		&di.ComponentDefinition{
			Name:  "a",
			Class: "Node",
			Properties: []di.Property{
				{Name: "Name", Spec: di.Literal(di.TypeString, "a")},
				{Name: "Peer", Spec: di.Ref("b")},
			},
		},
		&di.ComponentDefinition{
			Name:  "b",
			Class: "Node",
			Properties: []di.Property{
				{Name: "Name", Spec: di.Literal(di.TypeString, "b")},
				{Name: "Peer", Spec: di.Ref("a")},
			},
		},
	))

	if err := di.Validate(store, types); err != nil {
		panic(err)
	}

	a := di.MustGet[*Node](di.NewEngine(store, types), "a")
	fmt.Printf("%s -> %s -> %s (identity preserved: %v)\n", a.Name, a.Peer.Name, a.Peer.Peer.Name, a.Peer.Peer == a)
}

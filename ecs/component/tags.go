package component

// MarkedForRemoval hides an entity from agents until cleanup destroys it.
type MarkedForRemoval struct{}

var MarkedForRemovalComponent = NewComponent[MarkedForRemoval]()


package component

import "github.com/milk9111/groundnpc/npc"

type Owner struct {
	ID npc.OwnerID
}

var OwnerComponent = NewComponent[Owner]()

package component

type Health struct {
	Current float64
	Max     float64
}

var HealthComponent = NewComponent[Health]()

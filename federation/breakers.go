package federation

import (
	"sync"

	"github.com/rubyist/circuitbreaker"
)

var breakers = &sync.Map{}

func getBreaker(hostname string, backoffAt int) *circuit.Breaker {
	if cbRaw, hasCb := breakers.Load(hostname); hasCb {
		return cbRaw.(*circuit.Breaker)
	}
	if backoffAt <= 0 {
		backoffAt = 10 // default to 10 for those who don't have this set
	}
	cb, _ := breakers.LoadOrStore(hostname, circuit.NewConsecutiveBreaker(int64(backoffAt)))
	return cb.(*circuit.Breaker)
}

func ResetBreakers() {
	breakers = &sync.Map{}
}

package contracts

import "github.com/julienschmidt/httprouter"

// Handler is a domain HTTP surface mounted on the shared application router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hrdmtr/genbapower-sub000/sim"
)

type placeOrderRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Doneness  string `json:"doneness"`
}

type startCookingRequest struct {
	Worker    string `json:"worker" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Doneness  string `json:"doneness" binding:"required"`
}

type startNextRequest struct {
	Worker string `json:"worker" binding:"required"`
}

type instructionRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

type ticketMachineRequest struct {
	Running *bool `json:"running" binding:"required"`
}

// dishResponse is an accepted order.
type dishResponse struct {
	ID        uint64       `json:"id"`
	ProductID string       `json:"product_id"`
	Doneness  sim.Doneness `json:"doneness"`
}

// batchResponse is a batch that just entered the boiler.
type batchResponse struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"product_id"`
	Doneness     sim.Doneness `json:"doneness"`
	Worker       sim.WorkerID `json:"worker"`
	Slot         int          `json:"slot"`
	TotalSeconds float64      `json:"total_seconds"`
}

func newDishResponse(d *sim.Dish) dishResponse {
	return dishResponse{ID: d.ID, ProductID: d.ProductID, Doneness: d.Doneness}
}

func newBatchResponse(b *sim.CookBatch) batchResponse {
	return batchResponse{
		ID:           b.ID,
		ProductID:    b.ProductID,
		Doneness:     b.Doneness,
		Worker:       b.Worker,
		Slot:         b.Slot().Index(),
		TotalSeconds: b.Total.Seconds(),
	}
}

func (s *Server) handleSnapshot(c *gin.Context) {
	var snap sim.Snapshot
	if err := s.exec(c, func() { snap = s.kitchen.Snapshot() }); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleAdvisories(c *gin.Context) {
	var adv []sim.Advisory
	if err := s.exec(c, func() { adv = s.kitchen.Advisories() }); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advisories": adv})
}

func (s *Server) handleRecommendation(c *gin.Context) {
	worker, err := sim.ParseWorkerID(c.Param("worker"))
	if err != nil {
		writeError(c, err)
		return
	}
	s.command(c, http.StatusOK, func() (any, error) {
		return s.kitchen.Recommend(worker)
	})
}

func (s *Server) handlePlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var doneness *sim.Doneness
	if req.Doneness != "" {
		d, err := sim.ParseDoneness(req.Doneness)
		if err != nil {
			badRequest(c, err)
			return
		}
		doneness = &d
	}
	s.command(c, http.StatusCreated, func() (any, error) {
		d, err := s.kitchen.PlaceOrder(req.ProductID, doneness)
		if err != nil {
			return nil, err
		}
		return newDishResponse(d), nil
	})
}

func (s *Server) handleStartCooking(c *gin.Context) {
	var req startCookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	worker, err := sim.ParseWorkerID(req.Worker)
	if err != nil {
		writeError(c, err)
		return
	}
	doneness, err := sim.ParseDoneness(req.Doneness)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.command(c, http.StatusCreated, func() (any, error) {
		b, err := s.kitchen.StartCooking(worker, req.ProductID, doneness)
		if err != nil {
			return nil, err
		}
		return newBatchResponse(b), nil
	})
}

func (s *Server) handleStartNextOrder(c *gin.Context) {
	var req startNextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	worker, err := sim.ParseWorkerID(req.Worker)
	if err != nil {
		writeError(c, err)
		return
	}
	s.command(c, http.StatusCreated, func() (any, error) {
		b, err := s.kitchen.StartNextOrder(worker)
		if err != nil {
			return nil, err
		}
		return newBatchResponse(b), nil
	})
}

func (s *Server) handleVoidBatch(c *gin.Context) {
	id := c.Param("id")
	s.command(c, http.StatusNoContent, func() (any, error) {
		return nil, s.kitchen.VoidBatch(id)
	})
}

func (s *Server) handleAdvanceWorker(c *gin.Context) {
	worker, err := sim.ParseWorkerID(c.Param("worker"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req instructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	instruction, err := sim.ParseInstruction(req.Instruction)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.command(c, http.StatusAccepted, func() (any, error) {
		if err := s.kitchen.AdvanceWorker(worker, instruction); err != nil {
			return nil, err
		}
		w, _ := s.kitchen.Snapshot().Worker(worker)
		return w, nil
	})
}

func (s *Server) customerCounts() sim.CustomerCounts {
	return s.kitchen.Snapshot().Customers
}

func (s *Server) handleCustomerArrives(c *gin.Context) {
	s.command(c, http.StatusOK, func() (any, error) {
		s.kitchen.CustomerArrives()
		return s.customerCounts(), nil
	})
}

func (s *Server) handlePurchaseTicket(c *gin.Context) {
	s.command(c, http.StatusCreated, func() (any, error) {
		d, err := s.kitchen.PurchaseTicket()
		if err != nil {
			return nil, err
		}
		return newDishResponse(d), nil
	})
}

func (s *Server) handleFinishEating(c *gin.Context) {
	s.command(c, http.StatusOK, func() (any, error) {
		if err := s.kitchen.FinishEating(); err != nil {
			return nil, err
		}
		return s.customerCounts(), nil
	})
}

func (s *Server) handleCustomerLeaves(c *gin.Context) {
	s.command(c, http.StatusOK, func() (any, error) {
		if err := s.kitchen.CustomerLeaves(); err != nil {
			return nil, err
		}
		return s.customerCounts(), nil
	})
}

func (s *Server) handleTicketMachine(c *gin.Context) {
	var req ticketMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.command(c, http.StatusOK, func() (any, error) {
		if *req.Running {
			s.kitchen.StartTicketMachine()
		} else {
			s.kitchen.StopTicketMachine()
		}
		return gin.H{"running": s.kitchen.TicketMachineRunning()}, nil
	})
}

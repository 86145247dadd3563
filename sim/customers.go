package sim

// Customers tallies guests through their visit:
// in line for a ticket -> waiting for food -> eating -> leaving.
type Customers struct {
	counts CustomerCounts
}

// Arrive puts a new customer at the back of the ticket line.
func (c *Customers) Arrive() {
	c.counts.InLine++
}

// BuyTicket moves the head of the line to the waiting area.
func (c *Customers) BuyTicket() error {
	if c.counts.InLine == 0 {
		return precondition(ReasonNoCustomer, "nobody in line")
	}
	c.counts.InLine--
	c.counts.Waiting++
	return nil
}

// Seat hands food to a waiting customer. Returns false when nobody is waiting,
// which happens when orders arrive from outside the ticket machine.
func (c *Customers) Seat() bool {
	if c.counts.Waiting == 0 {
		return false
	}
	c.counts.Waiting--
	c.counts.Eating++
	return true
}

// FinishEating moves an eating customer to the exit.
func (c *Customers) FinishEating() error {
	if c.counts.Eating == 0 {
		return precondition(ReasonNoCustomer, "nobody eating")
	}
	c.counts.Eating--
	c.counts.Leaving++
	return nil
}

// Leave lets a finished customer out.
func (c *Customers) Leave() error {
	if c.counts.Leaving == 0 {
		return precondition(ReasonNoCustomer, "nobody leaving")
	}
	c.counts.Leaving--
	return nil
}

func (c *Customers) Counts() CustomerCounts { return c.counts }

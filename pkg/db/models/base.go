package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a zero primary key so inserts work on drivers without
// gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (c *Customer) BeforeCreate(*gorm.DB) error     { assignID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error      { assignID(&p.ID); return nil }
func (p *Price) BeforeCreate(*gorm.DB) error        { assignID(&p.ID); return nil }
func (s *Subscription) BeforeCreate(*gorm.DB) error { assignID(&s.ID); return nil }
func (w *WebhookLog) BeforeCreate(*gorm.DB) error   { assignID(&w.ID); return nil }
func (o *OutboxEvent) BeforeCreate(*gorm.DB) error  { assignID(&o.ID); return nil }

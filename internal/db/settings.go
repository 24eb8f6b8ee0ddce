package db

import "context"

func (q *Queries) GetSettings(ctx context.Context) (Settings, error) {
	var s Settings
	err := q.db.QueryRow(ctx, `SELECT delivery_charges, free_delivery_minimum, contact_phone,
		contact_email, site_title, site_description, updated_at FROM settings WHERE id = 1`).
		Scan(&s.DeliveryCharges, &s.FreeDeliveryMinimum, &s.ContactPhone,
			&s.ContactEmail, &s.SiteTitle, &s.SiteDescription, &s.UpdatedAt)
	return s, notFound(err)
}

func (q *Queries) UpsertSettings(ctx context.Context, arg Settings) (Settings, error) {
	var s Settings
	err := q.db.QueryRow(ctx, `INSERT INTO settings (id, delivery_charges, free_delivery_minimum,
		contact_phone, contact_email, site_title, site_description)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			delivery_charges = excluded.delivery_charges,
			free_delivery_minimum = excluded.free_delivery_minimum,
			contact_phone = excluded.contact_phone,
			contact_email = excluded.contact_email,
			site_title = excluded.site_title,
			site_description = excluded.site_description,
			updated_at = now()
		RETURNING delivery_charges, free_delivery_minimum, contact_phone,
			contact_email, site_title, site_description, updated_at`,
		arg.DeliveryCharges, arg.FreeDeliveryMinimum, arg.ContactPhone,
		arg.ContactEmail, arg.SiteTitle, arg.SiteDescription).
		Scan(&s.DeliveryCharges, &s.FreeDeliveryMinimum, &s.ContactPhone,
			&s.ContactEmail, &s.SiteTitle, &s.SiteDescription, &s.UpdatedAt)
	return s, err
}

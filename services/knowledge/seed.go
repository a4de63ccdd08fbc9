// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import "github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"

// SeedArticles returns the starter knowledge base loaded into fresh
// deployments and the in-memory store. Tags include Spanish variants since
// a meaningful share of desk traffic arrives in Spanish.
func SeedArticles() []Article {
	return []Article{
		{
			ID: "it-001", Category: datatypes.CategoryITSupport, Title: "Password Reset Policy & Procedure",
			Content: "To reset your password: 1. Go to https://password.company.com 2. Click 'Forgot Password'. " +
				"If you are locked out, contact the Service Desk at x1234. Passwords must be 12 characters long.",
			Tags:   []string{"password", "reset", "login", "access", "contraseña", "olvidé", "resetear", "clave"},
			Source: "Internal Wiki",
		},
		{
			ID: "it-002", Category: datatypes.CategoryITSupport, Title: "VPN Connection Troubleshooting",
			Content: "If VPN fails to connect: 1. Check internet connection. 2. Restart Cisco AnyConnect. " +
				"3. Verify certificate validity. 4. Contact IT if error 'Host Unreachable' persists.",
			Tags:   []string{"vpn", "connection", "network", "remote", "cisco", "red", "conexión"},
			Source: "IT Knowledge Base",
		},
		{
			ID: "it-003", Category: datatypes.CategoryITSupport, Title: "Requesting New Software",
			Content: "To request new software: Submit a ticket via the Service Portal with business justification " +
				"and manager approval. Standard software (Office, Adobe Reader) is auto-approved.",
			Tags:   []string{"software", "install", "request", "application", "license", "instalar", "programa"},
			Source: "Service Portal",
		},
		{
			ID: "it-006", Category: datatypes.CategoryITSupport, Title: "Reporting Phishing Emails",
			Content: "Use the 'Report Phishing' button in the Outlook ribbon. Do not click links or download " +
				"attachments. If you clicked something, call Security immediately at x9999.",
			Tags:   []string{"phishing", "security", "email", "spam", "seguridad", "estafa"},
			Source: "Security Policy",
		},
		{
			ID: "hr-001", Category: datatypes.CategoryHRInquiry, Title: "How to Check Your Leave Balance",
			Content: "Log in to the HR Portal: https://hr.company.com > 'My Profile' > 'Leave & Time Off'. " +
				"You can verify your vacation days, sick leave, and personal time off.",
			Tags:   []string{"leave", "vacation", "time off", "holiday", "vacaciones", "días libres"},
			Source: "HR Portal",
		},
		{
			ID: "hr-002", Category: datatypes.CategoryHRInquiry, Title: "Updating Direct Deposit Info",
			Content: "Go to Workday > Pay > Payment Elections. You can add or edit bank accounts. " +
				"Changes take 1-2 pay cycles to process.",
			Tags:   []string{"payroll", "bank", "deposit", "salary", "banco", "sueldo", "pago"},
			Source: "Payroll Guide",
		},
		{
			ID: "hr-006", Category: datatypes.CategoryHRInquiry, Title: "Parental Leave Policy",
			Content: "The company offers 12 weeks of paid parental leave for primary caregivers and 4 weeks " +
				"for secondary caregivers. Apply via Leave Administrator.",
			Tags:   []string{"parental", "leave", "maternity", "paternity", "licencia", "maternidad"},
			Source: "Benefits Policy",
		},
		{
			ID: "hr-003", Category: datatypes.CategoryHRInquiry, Title: "Health Insurance Enrollment",
			Content: "Open enrollment is in November. New hires have 30 days to enroll via the Benefits Portal. " +
				"Qualifying life events (marriage, birth) allow mid-year changes.",
			Tags:   []string{"insurance", "health", "benefits", "medical", "seguro", "salud", "beneficios"},
			Source: "Benefits Handbook",
		},
		{
			ID: "fin-001", Category: datatypes.CategoryFinance, Title: "Submitting Expense Reports",
			Content: "Use Concur for all expenses. Receipts required for items over $25. Submit by the 5th of " +
				"the month for reimbursement in the next cycle.",
			Tags:   []string{"expense", "report", "concur", "reimbursement", "gastos", "reembolso"},
			Source: "Finance Policy",
		},
		{
			ID: "fin-003", Category: datatypes.CategoryFinance, Title: "Invoice Processing",
			Content: "Send vendor invoices to accounts.payable@company.com. Include PO number. " +
				"Standard payment terms are Net 45.",
			Tags:   []string{"invoice", "payment", "vendor", "accounts payable", "factura", "pago"},
			Source: "AP Guide",
		},
		{
			ID: "fin-005", Category: datatypes.CategoryFinance, Title: "Payroll Discrepancies",
			Content: "If your paycheck is incorrect, open a ticket with 'Payroll' category immediately. " +
				"Attach paystub and highlight the error.",
			Tags:   []string{"payroll", "salary", "paycheck", "error", "nómina", "sueldo"},
			Source: "Payroll Support",
		},
		{
			ID: "fin-006", Category: datatypes.CategoryFinance, Title: "Travel Allowance Rates",
			Content: "Daily per diem for meals is $75 (domestic) and $100 (international). Hotel cap varies " +
				"by city. See the 'Travel Rate Card' for details.",
			Tags:   []string{"travel", "allowance", "per diem", "meals", "viaje", "viáticos"},
			Source: "Travel Policy",
		},
		{
			ID: "fac-001", Category: datatypes.CategoryFacilities, Title: "Office Access Cards",
			Content: "Lost badges must be reported to Security immediately. Replacement fee is $20. " +
				"New badges can be picked up at Reception 9am-5pm.",
			Tags:   []string{"badge", "access", "card", "security", "tarjeta", "acceso"},
			Source: "Security",
		},
		{
			ID: "fac-002", Category: datatypes.CategoryFacilities, Title: "Meeting Room Booking",
			Content: "Book rooms via Outlook Calendar or the Room Panel. If you do not check in within " +
				"10 mins, the room is released. Clean up after use.",
			Tags:   []string{"room", "meeting", "booking", "conference", "sala", "reunión"},
			Source: "Office Management",
		},
		{
			ID: "fac-003", Category: datatypes.CategoryFacilities, Title: "HVAC / Temperature Request",
			Content: "Standard office temperature is set to 72°F (22°C). To request adjustment, submit a " +
				"Facilities ticket with your zone/desk number.",
			Tags:   []string{"temperature", "ac", "heat", "hvac", "aire", "calefacción"},
			Source: "Building Ops",
		},
		{
			ID: "fac-009", Category: datatypes.CategoryFacilities, Title: "Emergency Evacuation",
			Content: "In case of fire alarm, use the stairs (NOT elevators). Assemble at the designated " +
				"point in the parking lot. Fire wardens wear orange vests.",
			Tags:   []string{"fire", "emergency", "evacuation", "safety", "incendio", "emergencia"},
			Source: "Safety",
		},
		{
			ID: "leg-001", Category: datatypes.CategoryLegal, Title: "NDA Request Process",
			Content: "Use the 'Standard Mutual NDA' template for most vendors. For custom NDAs, submit a " +
				"Legal Request ticket. Turnaround time is 3 business days.",
			Tags:   []string{"nda", "contract", "confidentiality", "agreement", "contrato"},
			Source: "Legal Portal",
		},
		{
			ID: "leg-002", Category: datatypes.CategoryLegal, Title: "Contract Review Policy",
			Content: "All contracts over $10k or with IP implications must be reviewed by Legal. " +
				"Do not sign anything without approval.",
			Tags:   []string{"contract", "review", "sign", "agreement", "contrato", "firma"},
			Source: "Legal Policy",
		},
		{
			ID: "leg-003", Category: datatypes.CategoryLegal, Title: "Data Privacy (GDPR/CCPA)",
			Content: "Report any potential data breach immediately to the DPO (dpo@company.com). Customer " +
				"data deletion requests must be processed within 30 days.",
			Tags:   []string{"privacy", "data", "gdpr", "ccpa", "compliance", "privacidad", "datos"},
			Source: "Compliance",
		},
	}
}

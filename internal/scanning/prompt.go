package scanning

// receiptScanPrompt is shared by every provider
const receiptScanPrompt = `You are reading a French expense receipt (note de frais). Carefully read all text in the image and extract:

1. **Merchant**: the business name printed at the top of the receipt, e.g. "SNCF", "Hôtel Ibis", "Pharmacie".

2. **Date**: the transaction date, converted to ISO 8601 (YYYY-MM-DD). French receipts usually print DD/MM/YYYY.

3. **Total**: the amount paid including VAT ("TOTAL TTC", "Net à payer", "Montant"). Numeric value only, with a dot as decimal separator.

Return ONLY valid JSON in this exact format:
{
  "title": "Merchant - short description",
  "date": "YYYY-MM-DD",
  "amount": 0.00
}

Important:
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
